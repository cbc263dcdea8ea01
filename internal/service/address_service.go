package service

import (
	"context"
	"strings"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

const defaultCountry = "India"

// AddressService адресная книга покупателя
type AddressService struct {
	addresses repository.AddressRepository
}

func NewAddressService(addresses repository.AddressRepository) *AddressService {
	return &AddressService{addresses: addresses}
}

func (s *AddressService) List(ctx context.Context, customerID string) ([]domain.Address, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	return s.addresses.List(ctx, customerID)
}

func (s *AddressService) Add(ctx context.Context, customerID string, a domain.Address) (*domain.Address, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	a, err := normalizeAddress(a)
	if err != nil {
		return nil, err
	}
	if err := s.addresses.Add(ctx, customerID, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) Update(ctx context.Context, customerID, addressID string, a domain.Address) (*domain.Address, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	a, err := normalizeAddress(a)
	if err != nil {
		return nil, err
	}
	a.ID = addressID
	if err := s.addresses.Update(ctx, customerID, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) Delete(ctx context.Context, customerID, addressID string) error {
	if err := requireCustomer(customerID); err != nil {
		return err
	}
	return s.addresses.Delete(ctx, customerID, addressID)
}

func normalizeAddress(a domain.Address) (domain.Address, error) {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	switch {
	case a.FullName == "":
		return a, domain.Invalid("full name is required")
	case a.Street == "":
		return a, domain.Invalid("street is required")
	case a.City == "":
		return a, domain.Invalid("city is required")
	case a.PostalCode == "":
		return a, domain.Invalid("postal code is required")
	}
	if a.Country == "" {
		a.Country = defaultCountry
	}
	return a, nil
}

package calendar

import "context"

// Store persists holiday and company-leave definitions. The leave core
// reads them when computing effective days; writes come from the admin
// surface only.
type Store interface {
	SaveHoliday(ctx context.Context, h *Holiday) error
	ListHolidays(ctx context.Context) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error

	SaveCompanyLeave(ctx context.Context, cl *CompanyLeave) error
	ListCompanyLeaves(ctx context.Context) ([]CompanyLeave, error)
	DeleteCompanyLeave(ctx context.Context, id string) error
}

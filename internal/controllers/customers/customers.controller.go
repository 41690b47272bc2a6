package customerController

import (
	"context"
	"errors"
	"io"

	"portal/internal/events"
	"portal/internal/logger"
	"portal/internal/metrics"
	. "portal/internal/models"
	"portal/internal/repositories"
	"portal/internal/services"
	"portal/internal/utils"

	"github.com/google/uuid"
)

type CustomerController struct {
	customerRepo       repositories.CustomerRepository
	transactionService *services.TransactionService
	accessTokens       *services.AccessTokenService
	eventBus           *events.EventBus
	metrics            *metrics.Metrics
	log                logger.Logger
}

func New(
	customerRepo repositories.CustomerRepository,
	transactionService *services.TransactionService,
	accessTokens *services.AccessTokenService,
	eventBus *events.EventBus,
	metrics *metrics.Metrics,
) *CustomerController {
	return &CustomerController{
		customerRepo:       customerRepo,
		transactionService: transactionService,
		accessTokens:       accessTokens,
		eventBus:           eventBus,
		metrics:            metrics,
		log:                logger.New("CustomerController"),
	}
}

func (cc *CustomerController) List(ctx context.Context) ([]CustomerRecord, error) {
	customers, err := cc.customerRepo.GetAll(ctx)
	if err != nil {
		return nil, cc.log.Function("List").Err("failed to list customers", err)
	}

	records := make([]CustomerRecord, 0, len(customers))
	for _, customer := range customers {
		records = append(records, customer.Record())
	}
	return records, nil
}

func (cc *CustomerController) Get(ctx context.Context, id string) (CustomerRecord, error) {
	customer, err := cc.customerRepo.GetByID(ctx, id)
	if err != nil {
		return CustomerRecord{}, err
	}
	return customer.Record(), nil
}

func (cc *CustomerController) Create(ctx context.Context, formData FormData) (record CustomerRecord, err error) {
	log := cc.log.Function("Create")
	defer func() { cc.metrics.CustomerOperation("create", err) }()

	formData = normalize(formData)
	if err := validate(formData); err != nil {
		return CustomerRecord{}, err
	}
	if formData.GUID == "" {
		formData.GUID = uuid.NewString()
	}

	customer := &Customer{FormData: formData}
	if err := cc.customerRepo.Create(ctx, customer); err != nil {
		return CustomerRecord{}, log.Err("failed to create customer", err)
	}

	cc.publish(events.ActionCreated, customer.ID)
	return customer.Record(), nil
}

// Update replaces the stored form. A payload without guid keeps the stored one.
func (cc *CustomerController) Update(ctx context.Context, id string, formData FormData) (record CustomerRecord, err error) {
	log := cc.log.Function("Update")
	defer func() { cc.metrics.CustomerOperation("update", err) }()

	formData = normalize(formData)
	if err := validate(formData); err != nil {
		return CustomerRecord{}, err
	}

	var customer *Customer
	err = cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		existing, err := cc.customerRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if formData.GUID == "" {
			formData.GUID = existing.FormData.GUID
		}
		existing.FormData = formData

		if err := cc.customerRepo.Update(txCtx, existing); err != nil {
			return log.Err("failed to update customer", err, "customerID", id)
		}
		customer = existing
		return nil
	})
	if err != nil {
		return CustomerRecord{}, err
	}

	cc.publish(events.ActionUpdated, id)
	return customer.Record(), nil
}

func (cc *CustomerController) Delete(ctx context.Context, id string) (err error) {
	defer func() { cc.metrics.CustomerOperation("delete", err) }()

	if err := cc.customerRepo.Delete(ctx, id); err != nil {
		return err
	}

	cc.publish(events.ActionDeleted, id)
	return nil
}

// ResetEditedStatus reopens the public form for another customer submission.
func (cc *CustomerController) ResetEditedStatus(ctx context.Context, id string) (record CustomerRecord, err error) {
	log := cc.log.Function("ResetEditedStatus")
	defer func() { cc.metrics.CustomerOperation("reset_edited", err) }()

	var customer *Customer
	err = cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		existing, err := cc.customerRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		existing.FormData.EditedByCustomer = false
		if err := cc.customerRepo.Update(txCtx, existing); err != nil {
			return log.Err("failed to reset edited status", err, "customerID", id)
		}
		customer = existing
		return nil
	})
	if err != nil {
		return CustomerRecord{}, err
	}

	cc.publish(events.ActionResetEdited, id)
	return customer.Record(), nil
}

func (cc *CustomerController) CreateMock(ctx context.Context) (CustomerRecord, error) {
	return cc.Create(ctx, utils.GenerateMockData())
}

// IssuePublicLink mints a new access token; any earlier link stops working.
func (cc *CustomerController) IssuePublicLink(ctx context.Context, id string) (link PublicLink, err error) {
	log := cc.log.Function("IssuePublicLink")
	defer func() { cc.metrics.CustomerOperation("public_link", err) }()

	if _, err := cc.customerRepo.GetByID(ctx, id); err != nil {
		return PublicLink{}, err
	}

	token, hash, err := cc.accessTokens.Generate()
	if err != nil {
		return PublicLink{}, log.Err("failed to generate access token", err, "customerID", id)
	}

	if err := cc.customerRepo.SetAccessTokenHash(ctx, id, hash); err != nil {
		return PublicLink{}, err
	}

	cc.publish(events.ActionPublicLink, id)
	return cc.accessTokens.Link(id, token), nil
}

func (cc *CustomerController) GetPublic(ctx context.Context, id, token string) (CustomerRecord, error) {
	if err := cc.verifyAccess(ctx, id, token); err != nil {
		return CustomerRecord{}, err
	}
	return cc.Get(ctx, id)
}

// SubmitPublic stores the customer's own submission and closes the link for
// further edits. Only the form payload is taken from the caller.
func (cc *CustomerController) SubmitPublic(ctx context.Context, id, token string, formData FormData) (CustomerRecord, error) {
	log := cc.log.Function("SubmitPublic")

	formData = normalize(formData)
	if err := validate(formData); err != nil {
		cc.metrics.PublicSubmission(metrics.OutcomeRejected)
		return CustomerRecord{}, err
	}

	var customer *Customer
	err := cc.transactionService.Execute(ctx, func(txCtx context.Context) error {
		if err := cc.verifyAccess(txCtx, id, token); err != nil {
			return err
		}

		existing, err := cc.customerRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if existing.FormData.EditedByCustomer {
			return ErrAlreadyEdited
		}

		formData.GUID = existing.FormData.GUID
		formData.EditedByCustomer = true
		existing.FormData = formData

		if err := cc.customerRepo.Update(txCtx, existing); err != nil {
			return log.Err("failed to store public submission", err, "customerID", id)
		}
		customer = existing
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyEdited), errors.Is(err, ErrInvalidAccessToken), errors.Is(err, ErrNotFound):
			cc.metrics.PublicSubmission(metrics.OutcomeRejected)
		default:
			cc.metrics.PublicSubmission(metrics.OutcomeError)
		}
		return CustomerRecord{}, err
	}

	cc.metrics.PublicSubmission(metrics.OutcomeSuccess)
	cc.publish(events.ActionPublicSubmit, id)
	return customer.Record(), nil
}

// ExportCSV writes every customer to w and returns the number of rows.
func (cc *CustomerController) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	records, err := cc.List(ctx)
	if err != nil {
		return 0, err
	}

	writer := utils.NewCustomerCSVWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return 0, cc.log.Function("ExportCSV").Err("failed to export customers", err)
	}
	return writer.Rows(), nil
}

func (cc *CustomerController) verifyAccess(ctx context.Context, id, token string) error {
	if !services.IsValidAccessTokenShape(token) {
		return ErrInvalidAccessToken
	}

	hash, err := cc.customerRepo.GetAccessTokenHash(ctx, id)
	if err != nil {
		// Unknown ids look exactly like wrong tokens to the public caller.
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidAccessToken
		}
		return err
	}

	return cc.accessTokens.Verify(hash, token)
}

func (cc *CustomerController) publish(action, customerID string) {
	if cc.eventBus == nil {
		return
	}
	err := cc.eventBus.Publish(events.CUSTOMER_CHANNEL, events.Event{
		Type:       events.TypeCustomerChanged,
		Action:     action,
		CustomerID: customerID,
	})
	if err != nil {
		cc.log.Function("publish").Warn("failed to publish customer event",
			"action", action, "customerID", customerID, "error", err)
	}
}

// normalize applies the storage formats: grouped IBAN, grouped mileage and
// YYYY-MM-DD dates where the input is recognisable.
func normalize(formData FormData) FormData {
	formData.PaymentInfo.IBAN = utils.FormatIBAN(formData.PaymentInfo.IBAN)
	formData.VehicleData.CurrentMileage = utils.FormatMileage(formData.VehicleData.CurrentMileage)

	for _, date := range []*string{
		&formData.VehicleData.FirstRegistration,
		&formData.VehicleData.FirstRegistrationOwner,
		&formData.DriverInfo.DOB,
		&formData.DriverInfo.LicenseIssueDate,
		&formData.InsuranceInfo.StartDate,
	} {
		if normalized, ok := utils.NormalizeDate(*date); ok {
			*date = normalized
		}
	}

	return formData
}

func validate(formData FormData) error {
	err := utils.Validator().Struct(formData)
	if err == nil {
		return nil
	}

	fields := utils.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	return &ValidationError{Fields: fields}
}

package repositories

import (
	"context"
	"errors"
	"time"

	"portal/internal/database"
	"portal/internal/logger"
	. "portal/internal/models"
	"portal/internal/services"

	"gorm.io/gorm"
)

const (
	CUSTOMER_CACHE_EXPIRY = 24 * time.Hour
	CUSTOMER_CACHE_PREFIX = "customer"
)

type CustomerRepository interface {
	GetAll(ctx context.Context) ([]*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id string) error
	GetAccessTokenHash(ctx context.Context, id string) (string, error)
	SetAccessTokenHash(ctx context.Context, id, hash string) error
}

type customerRepository struct {
	db  database.DB
	log logger.Logger
}

func NewCustomer(db database.DB) CustomerRepository {
	return &customerRepository{
		db:  db,
		log: logger.New("customerRepository"),
	}
}

func (r *customerRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *customerRepository) GetAll(ctx context.Context) ([]*Customer, error) {
	log := r.log.Function("GetAll")

	var customers []*Customer
	if err := r.getDB(ctx).Order("created_at DESC").Find(&customers).Error; err != nil {
		return nil, log.Err("failed to get all customers", err)
	}

	return customers, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	log := r.log.Function("GetByID")

	var customer Customer
	// Inside a transaction the cache could hold a value the transaction is about to replace.
	if _, inTx := services.GetTransaction(ctx); !inTx {
		if found, err := r.getCacheByID(ctx, id, &customer); err == nil && found {
			return &customer, nil
		}
	}

	if err := r.getDBByID(ctx, id, &customer); err != nil {
		return nil, err
	}

	if err := r.refreshCache(ctx, &customer); err != nil {
		log.Warn("failed to add customer to cache", "customerID", id, "error", err)
	}

	return &customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *Customer) error {
	log := r.log.Function("Create")

	if err := r.getDB(ctx).Create(customer).Error; err != nil {
		return log.Err("failed to create customer", err)
	}

	if err := r.refreshCache(ctx, customer); err != nil {
		log.Warn("failed to add customer to cache", "customerID", customer.ID, "error", err)
	}

	return nil
}

func (r *customerRepository) Update(ctx context.Context, customer *Customer) error {
	log := r.log.Function("Update")

	result := r.getDB(ctx).Model(customer).Select("FormData").Updates(customer)
	if result.Error != nil {
		return log.Err("failed to update customer", result.Error, "customerID", customer.ID)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	// Reload so the cached copy carries the stored timestamps.
	var stored Customer
	if err := r.getDBByID(ctx, customer.ID, &stored); err != nil {
		return err
	}
	*customer = stored

	if err := r.refreshCache(ctx, customer); err != nil {
		log.Warn("failed to update customer in cache", "customerID", customer.ID, "error", err)
	}

	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	log := r.log.Function("Delete")

	result := r.getDB(ctx).Delete(&Customer{}, "id = ?", id)
	if result.Error != nil {
		return log.Err("failed to delete customer", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	if err := r.cache(ctx, id).Delete(); err != nil {
		log.Warn("failed to remove customer from cache", "customerID", id, "error", err)
	}

	return nil
}

// GetAccessTokenHash always reads the database; the hash is never cached.
func (r *customerRepository) GetAccessTokenHash(ctx context.Context, id string) (string, error) {
	var customer Customer
	if err := r.getDBByID(ctx, id, &customer); err != nil {
		return "", err
	}
	if customer.AccessTokenHash == nil {
		return "", nil
	}
	return *customer.AccessTokenHash, nil
}

func (r *customerRepository) SetAccessTokenHash(ctx context.Context, id, hash string) error {
	log := r.log.Function("SetAccessTokenHash")

	// UpdateColumn skips the save hooks, which would otherwise mint an id for the empty model.
	result := r.getDB(ctx).Model(&Customer{}).Where("id = ?", id).UpdateColumn("access_token_hash", hash)
	if result.Error != nil {
		return log.Err("failed to store access token hash", result.Error, "customerID", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *customerRepository) cache(ctx context.Context, customerID string) *database.CacheBuilder {
	return database.NewCacheBuilder(r.db.Cache.Customer, customerID).
		WithPrefix(CUSTOMER_CACHE_PREFIX).
		WithContext(ctx)
}

func (r *customerRepository) getCacheByID(ctx context.Context, customerID string, customer *Customer) (bool, error) {
	found, err := r.cache(ctx, customerID).Get(customer)
	if err != nil {
		return false, r.log.Function("getCacheByID").
			Err("failed to get customer from cache", err, "customerID", customerID)
	}
	return found, nil
}

// refreshCache caches customer, except inside a transaction: there the key is
// only dropped, since the row may still be rolled back. The next read outside
// the transaction fills it again.
func (r *customerRepository) refreshCache(ctx context.Context, customer *Customer) error {
	if _, inTx := services.GetTransaction(ctx); inTx {
		return r.cache(ctx, customer.ID).Delete()
	}
	return r.addCustomerToCache(ctx, customer)
}

func (r *customerRepository) addCustomerToCache(ctx context.Context, customer *Customer) error {
	err := r.cache(ctx, customer.ID).
		WithStruct(customer).
		WithTTL(CUSTOMER_CACHE_EXPIRY).
		Set()
	if errors.Is(err, database.ErrCacheDisabled) {
		return nil
	}
	return err
}

func (r *customerRepository) getDBByID(ctx context.Context, customerID string, customer *Customer) error {
	log := r.log.Function("getDBByID")

	if err := r.getDB(ctx).First(customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return log.Err("failed to get customer by id", err, "id", customerID)
	}

	return nil
}

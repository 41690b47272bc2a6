package seed

import (
	"portal/config"
	"portal/internal/logger"
	. "portal/internal/models"
	"portal/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seed inserts count mock customers. Nothing is inserted outside development
// or when customers already exist, unless force is set.
func Seed(db *gorm.DB, config config.Config, log logger.Logger, count int, force bool) (int, error) {
	log = log.Function("seed")

	if config.IsProduction() && !force {
		log.Warn("Refusing to seed a production database without force")
		return 0, nil
	}

	var existing int64
	if err := db.Model(&Customer{}).Count(&existing).Error; err != nil {
		return 0, log.Err("failed to count customers", err)
	}
	if existing > 0 && !force {
		log.Info("Customers already exist, skipping seed", "existing", existing)
		return 0, nil
	}

	log.Info("Seeding mock customers", "count", count)

	customers := make([]Customer, 0, count)
	for _, formData := range utils.GenerateMockCustomers(count) {
		formData.GUID = uuid.NewString()
		customers = append(customers, Customer{FormData: formData})
	}
	if len(customers) == 0 {
		return 0, nil
	}

	if err := db.Create(&customers).Error; err != nil {
		return 0, log.Err("failed to seed customers", err, "count", count)
	}

	return len(customers), nil
}

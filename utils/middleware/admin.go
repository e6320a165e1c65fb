package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
	"gorm.io/gorm"
)

// AdminAuditLog records an audit trail entry for an admin action. The write
// is best-effort and never fails the request. Stores without a gorm handle
// (tests) skip logging.
func AdminAuditLog(store database.Storage, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminUser, ok := GetUser(c)
		if !ok {
			return c.Next()
		}

		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		var newValue interface{}
		if c.Method() == "POST" || c.Method() == "PUT" {
			body := c.Body()
			if len(body) > 0 {
				json.Unmarshal(body, &newValue)
			}
		}

		err := c.Next()

		newValueJSON, _ := json.Marshal(newValue)
		auditLog := model.AdminAuditLog{
			AdminID:    adminUser.ID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValue:   string(newValueJSON),
			IPAddress:  c.IP(),
			UserAgent:  c.Get("User-Agent"),
		}
		db.Create(&auditLog)

		return err
	}
}

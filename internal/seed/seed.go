// Package seed provisions reference data a fresh deployment needs.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	"gorm.io/gorm"
)

// defaultPortals are the partner front-ends served out of the box.
var defaultPortals = []struct {
	Name   string
	Slug   string
	Domain string
}{
	{Name: "Dobre Firmy", Slug: "dobre-firmy", Domain: "dobre-firmy.pl"},
	{Name: "Arena Biznesu", Slug: "arena-biznesu", Domain: "arena-biznesu.pl"},
	{Name: "Panteon Firm", Slug: "panteonfirm", Domain: "panteonfirm.pl"},
}

// EnsurePortals inserts the default portals if they are missing. Existing
// rows are left untouched, including operator edits.
func EnsurePortals(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range defaultPortals {
			var count int64
			if err := tx.Model(&portaldomain.Portal{}).
				Where("slug = ?", p.Slug).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			now := time.Now().UTC()
			portal := portaldomain.Portal{
				ID:        node.Generate(),
				Name:      p.Name,
				Slug:      p.Slug,
				Domain:    p.Domain,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&portal).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
)

type index struct {
	name    string
	columns []string
}

// taskIndexes back the per-user list orderings.
var taskIndexes = []index{
	{"idx_tasks_user_due_date", []string{"user_id", "due_date"}},
	{"idx_tasks_user_created_at", []string{"user_id", "created_at"}},
	{"idx_tasks_user_status", []string{"user_id", "status"}},
}

// AddIndexes adds the composite indexes the list queries rely on
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range taskIndexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			log.Printf("Index %s already exists, skipping", idx.name)
			continue
		}

		cols := strings.Join(idx.columns, ", ")
		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, cols)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on tasks(%s)", idx.name, cols)
	}

	return nil
}

package storage

import (
	"context"

	"github.com/s/trainingHub/internal/models"
	"gorm.io/gorm"
)

func orderBySort(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order")
}

// boardTree preloads columns and cards, both in sort order.
func boardTree(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Columns", orderBySort).Preload("Columns.Cards", orderBySort)
}

// ListBoards returns the shared boards plus the boards owned by locationID.
func ListBoards(ctx context.Context, db *gorm.DB, locationID string) ([]models.AutomationBoard, error) {
	var boards []models.AutomationBoard
	q := boardTree(db.WithContext(ctx))
	if locationID == "" {
		q = q.Where("location_id IS NULL")
	} else {
		q = q.Where("location_id IS NULL OR location_id = ?", locationID)
	}
	err := q.Order("sort_order").Find(&boards).Error
	return boards, err
}

func GetBoard(ctx context.Context, db *gorm.DB, id string) (models.AutomationBoard, error) {
	var board models.AutomationBoard
	if err := boardTree(db.WithContext(ctx)).First(&board, "id = ?", id).Error; err != nil {
		return models.AutomationBoard{}, notFound(err)
	}
	return board, nil
}

func CreateBoard(ctx context.Context, db *gorm.DB, board *models.AutomationBoard) error {
	return db.WithContext(ctx).Omit("Columns").Create(board).Error
}

// DeleteBoard removes a board with all of its columns and cards.
func DeleteBoard(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var columnIDs []string
		if err := tx.Model(&models.AutomationColumn{}).Where("board_id = ?", id).Pluck("id", &columnIDs).Error; err != nil {
			return err
		}
		if len(columnIDs) > 0 {
			if err := tx.Where("column_id IN ?", columnIDs).Delete(&models.AutomationCard{}).Error; err != nil {
				return err
			}
			if err := tx.Where("board_id = ?", id).Delete(&models.AutomationColumn{}).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&models.AutomationBoard{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func GetColumn(ctx context.Context, db *gorm.DB, id string) (models.AutomationColumn, error) {
	var column models.AutomationColumn
	err := db.WithContext(ctx).Preload("Cards", orderBySort).First(&column, "id = ?", id).Error
	if err != nil {
		return models.AutomationColumn{}, notFound(err)
	}
	return column, nil
}

// CreateColumn appends a column at max(sort_order)+1 within its board.
func CreateColumn(ctx context.Context, db *gorm.DB, column *models.AutomationColumn) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextSortOrder(tx, &models.AutomationColumn{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("board_id = ?", column.BoardID)
		})
		if err != nil {
			return err
		}
		column.SortOrder = next
		return tx.Omit("Cards").Create(column).Error
	})
}

func RenameColumn(ctx context.Context, db *gorm.DB, id, title string) error {
	result := db.WithContext(ctx).Model(&models.AutomationColumn{}).Where("id = ?", id).Update("title", title)
	return updated(db.WithContext(ctx), &models.AutomationColumn{}, id, result)
}

// DeleteColumn deletes the column's cards first, then the column.
func DeleteColumn(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("column_id = ?", id).Delete(&models.AutomationCard{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.AutomationColumn{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func GetCard(ctx context.Context, db *gorm.DB, id string) (models.AutomationCard, error) {
	var card models.AutomationCard
	if err := db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return models.AutomationCard{}, notFound(err)
	}
	return card, nil
}

func CreateCard(ctx context.Context, db *gorm.DB, card *models.AutomationCard) error {
	return db.WithContext(ctx).Create(card).Error
}

// UpdateCard saves label and notes together.
func UpdateCard(ctx context.Context, db *gorm.DB, id, label string, notes *string) error {
	result := db.WithContext(ctx).Model(&models.AutomationCard{}).Where("id = ?", id).
		Updates(map[string]interface{}{"label": label, "notes": notes})
	return updated(db.WithContext(ctx), &models.AutomationCard{}, id, result)
}

func DeleteCard(ctx context.Context, db *gorm.DB, id string) error {
	result := db.WithContext(ctx).Delete(&models.AutomationCard{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func renumber(tx *gorm.DB, cardIDs []string) error {
	for i, id := range cardIDs {
		if err := tx.Model(&models.AutomationCard{}).Where("id = ?", id).Update("sort_order", i).Error; err != nil {
			return err
		}
	}
	return nil
}

// RenumberCards rewrites sort_order as 0..n-1 following cardIDs.
func RenumberCards(ctx context.Context, db *gorm.DB, cardIDs []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return renumber(tx, cardIDs)
	})
}

// MoveCard re-parents a card at sortOrder in toColumnID and compacts the
// cards left behind in the source column.
func MoveCard(ctx context.Context, db *gorm.DB, cardID, toColumnID string, sortOrder int, remaining []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AutomationCard{}).Where("id = ?", cardID).
			Updates(map[string]interface{}{"column_id": toColumnID, "sort_order": sortOrder})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return renumber(tx, remaining)
	})
}

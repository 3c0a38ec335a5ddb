package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
)

type checklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) ChecklistRepository {
	return &checklistRepository{db: db}
}

func (r *checklistRepository) List(ctx context.Context, userID string, page Page) ([]models.Checklist, error) {
	checklists := make([]models.Checklist, 0)
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	err := paginate(query, page).Find(&checklists).Error
	return checklists, err
}

func (r *checklistRepository) Create(ctx context.Context, checklist *models.Checklist) error {
	return r.db.WithContext(ctx).Create(checklist).Error
}

// GetWithItems loads the checklist and its items in display order.
func (r *checklistRepository) GetWithItems(ctx context.Context, userID, id string) (*models.Checklist, error) {
	var checklist models.Checklist
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&checklist).Error
	if err != nil {
		return nil, err
	}
	if checklist.Items == nil {
		checklist.Items = []models.ChecklistItem{}
	}
	return &checklist, nil
}

func (r *checklistRepository) Update(ctx context.Context, userID, id string, updates Updates) (*models.Checklist, error) {
	var checklist models.Checklist
	if err := updateOwned(ctx, r.db, &checklist, userID, id, updates); err != nil {
		return nil, err
	}
	return &checklist, nil
}

// Delete removes the checklist and its items in one transaction.
func (r *checklistRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var checklist models.Checklist
		if err := tx.Select("id").Where("id = ? AND user_id = ?", id, userID).First(&checklist).Error; err != nil {
			return err
		}
		if err := tx.Where("checklist_id = ?", checklist.ID).Delete(&models.ChecklistItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Checklist{}, "id = ?", checklist.ID).Error
	})
}

func (r *checklistRepository) AddItem(ctx context.Context, userID, checklistID string, item *models.ChecklistItem, sortOrder *int) error {
	db := r.db.WithContext(ctx)

	var checklist models.Checklist
	if err := db.Select("id").Where("id = ? AND user_id = ?", checklistID, userID).First(&checklist).Error; err != nil {
		return err
	}

	item.ChecklistID = checklist.ID
	if sortOrder != nil {
		item.SortOrder = *sortOrder
	} else {
		var maxOrder *int
		if err := db.Model(&models.ChecklistItem{}).
			Where("checklist_id = ?", checklist.ID).
			Select("MAX(sort_order)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}
		item.SortOrder = 0
		if maxOrder != nil {
			item.SortOrder = *maxOrder + 1
		}
	}

	return db.Create(item).Error
}

// ownedItems restricts checklist_items to those under the user's checklists.
func (r *checklistRepository) ownedItems(ctx context.Context, userID, itemID string) *gorm.DB {
	owned := r.db.Model(&models.Checklist{}).Select("id").Where("user_id = ?", userID)
	return r.db.WithContext(ctx).Where("id = ? AND checklist_id IN (?)", itemID, owned)
}

func (r *checklistRepository) UpdateItem(ctx context.Context, userID, itemID string, updates Updates) (*models.ChecklistItem, error) {
	if err := r.ownedItems(ctx, userID, itemID).Model(&models.ChecklistItem{}).Updates(map[string]any(updates)).Error; err != nil {
		return nil, err
	}
	var item models.ChecklistItem
	if err := r.ownedItems(ctx, userID, itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *checklistRepository) DeleteItem(ctx context.Context, userID, itemID string) error {
	res := r.ownedItems(ctx, userID, itemID).Delete(&models.ChecklistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mwalther/equipcore/internal/errs"
	"github.com/mwalther/equipcore/internal/models"
)

// Service is the lifecycle orchestrator. Every multi-step operation runs
// inside one transaction: item mutation, history append and document
// persistence either all happen or none do.
type Service struct {
	db     *gorm.DB
	ledger *Ledger
	gen    DocumentGenerator
	events EventSink
}

// NewService creates the orchestrator. gen and events may be nil: without
// a generator no documents are produced, without a sink no events are
// broadcast.
func NewService(db *gorm.DB, gen DocumentGenerator, events EventSink) *Service {
	return &Service{
		db:     db,
		ledger: NewLedger(),
		gen:    gen,
		events: events,
	}
}

// Ledger exposes the history ledger, mainly for provisioning and tests.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

func (s *Service) publish(event models.HistoryEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

// PeekNextTag previews the next asset tag without reserving it. Advisory
// only: a creation racing with another creation may still end up with a
// different tag, allocation itself stays race-free.
func (s *Service) PeekNextTag(ctx context.Context) (string, error) {
	var rows []struct {
		AssetTag string
		SKU      string
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Item{}).
		Select("asset_tag", "sku").
		Find(&rows).Error; err != nil {
		return "", fmt.Errorf("scanning asset tags: %w", err)
	}
	max := 0
	for _, row := range rows {
		for _, candidate := range []string{row.AssetTag, row.SKU} {
			if n, ok := tagNumber(candidate); ok && n > max {
				max = n
			}
		}
	}
	return formatTag(max + 1), nil
}

// Create registers a new item and appends its "created" history event in
// one transaction. The asset tag is allocated under a write lock, so
// concurrent creations get strictly increasing tags.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateItemInput) (*models.Item, error) {
	if !models.CanModify(actor.Role) {
		return nil, errs.Forbiddenf("role %q may not create items", actor.Role)
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.StatusAvailable
	}
	if status == models.StatusInUse {
		return nil, errs.Validationf("status", "a new item cannot start in_use; assign it instead")
	}
	if !validStatus(status) {
		return nil, errs.Validationf("status", "unknown status %q", status)
	}

	item := models.Item{
		ID:            uuid.NewString(),
		Category:      input.Category,
		Type:          input.Type,
		Manufacturer:  input.Manufacturer,
		Model:         input.Model,
		SerialNumber:  input.SerialNumber,
		Status:        status,
		PurchaseDate:  input.PurchaseDate,
		PurchasePrice: input.PurchasePrice,
		WarrantyEnd:   input.WarrantyEnd,
		Location:      input.Location,
		Specs:         input.Specs,
		Notes:         input.Notes,
		Photos:        photosJSON(input.Photos),
	}

	var event models.HistoryEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag, err := nextAssetTag(tx)
		if err != nil {
			return err
		}
		item.AssetTag = tag

		if err := tx.Create(&item).Error; err != nil {
			return translateDuplicate(err)
		}

		event = models.HistoryEvent{
			ItemID:      item.ID,
			UserID:      actorID(actor),
			Kind:        models.EventCreated,
			Color:       models.EventColor(models.EventCreated),
			Title:       "Item created",
			Description: fmt.Sprintf("%s %s registered as %s", item.Manufacturer, item.Model, item.AssetTag),
		}
		return s.ledger.Append(tx, &event)
	})
	if err != nil {
		return nil, err
	}

	s.publish(event)
	return &item, nil
}

// Get returns one item with its assignee preloaded.
func (s *Service) Get(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).Preload("AssignedUser").First(&item, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.NotFoundf("item %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns all items, newest first.
func (s *Service) List(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).Preload("AssignedUser").
		Order("created_at DESC").Find(&items).Error
	return items, err
}

// Update patches item fields and appends an "updated" history event in
// one transaction.
func (s *Service) Update(ctx context.Context, actor Actor, id string, input UpdateItemInput) (*models.Item, error) {
	if !models.CanModify(actor.Role) {
		return nil, errs.Forbiddenf("role %q may not update items", actor.Role)
	}

	var item models.Item
	var event models.HistoryEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&item, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFoundf("item %s not found", id)
			}
			return err
		}

		changed, err := applyPatch(&item, input)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return errs.Validationf("", "no fields to update")
		}

		if err := tx.Save(&item).Error; err != nil {
			return translateDuplicate(err)
		}

		event = models.HistoryEvent{
			ItemID:      item.ID,
			UserID:      actorID(actor),
			Kind:        models.EventUpdated,
			Color:       models.EventColor(models.EventUpdated),
			Title:       "Item updated",
			Description: "Changed: " + strings.Join(changed, ", "),
		}
		return s.ledger.Append(tx, &event)
	})
	if err != nil {
		return nil, err
	}

	s.publish(event)
	return &item, nil
}

// Assign hands the item to a user: item mutation, "assigned" history
// event and the generated receipt document commit atomically. Returns the
// document ID, or "" when no generator is configured.
func (s *Service) Assign(ctx context.Context, actor Actor, itemID string, input AssignInput) (string, error) {
	if !models.CanModify(actor.Role) {
		return "", errs.Forbiddenf("role %q may not assign items", actor.Role)
	}
	if input.UserID == "" {
		return "", errs.Validationf("userId", "userId is required")
	}

	var docID string
	var event models.HistoryEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.First(&target, "id = ?", input.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFoundf("user %s not found", input.UserID)
			}
			return err
		}
		// Managers hand equipment to product users only, not to peers.
		if actor.Role == models.RoleManager && target.Role != models.RoleProduct {
			return errs.Forbiddenf("managers may only assign to product users")
		}

		var item models.Item
		if err := lockForUpdate(tx).First(&item, "id = ?", itemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFoundf("item %s not found", itemID)
			}
			return err
		}
		if item.AssignedUserID != nil {
			return errs.Conflictf("assignedUserId", "item %s is already assigned", item.AssetTag)
		}

		item.AssignedUserID = &target.ID
		item.Status = models.StatusInUse
		if err := tx.Model(&item).Select("assigned_user_id", "status", "updated_at").
			Updates(&item).Error; err != nil {
			return err
		}

		event = models.HistoryEvent{
			ItemID:      item.ID,
			UserID:      actorID(actor),
			Kind:        models.EventAssigned,
			Color:       models.EventColor(models.EventAssigned),
			Title:       "Item assigned",
			Description: fmt.Sprintf("Assigned to %s", target.DisplayName()),
		}
		if err := s.ledger.Append(tx, &event); err != nil {
			return err
		}

		if s.gen == nil {
			return nil
		}
		content, err := s.gen.Receipt(DocumentData{
			Company:   companySettings(tx),
			User:      target,
			Item:      item,
			Date:      time.Now(),
			Signature: input.Signature,
		})
		if err != nil {
			return errs.Wrap(err, "generating receipt")
		}

		doc := models.Document{
			ID:             uuid.NewString(),
			ItemID:         item.ID,
			UserID:         target.ID,
			Type:           models.DocumentReceipt,
			Content:        content,
			SignedAt:       time.Now(),
			ActorID:        actorID(actor),
			HistoryEventID: event.ID,
		}
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		docID = doc.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publish(event)
	return docID, nil
}

// Return takes the item back to stock. Any authenticated caller may
// return any assigned item; returns are routinely processed by admins on
// the employee's behalf.
func (s *Service) Return(ctx context.Context, actor Actor, itemID string, input ReturnInput) error {
	var event models.HistoryEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := lockForUpdate(tx).First(&item, "id = ?", itemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFoundf("item %s not found", itemID)
			}
			return err
		}
		if item.AssignedUserID == nil {
			return errs.NotAssignedf("item %s has no active assignment", item.AssetTag)
		}

		// Capture the assignee before clearing; the return form is issued
		// in their name.
		var holder models.User
		if err := tx.First(&holder, "id = ?", *item.AssignedUserID).Error; err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		item.AssignedUserID = nil
		item.Status = models.StatusAvailable
		if err := tx.Model(&item).Select("assigned_user_id", "status", "updated_at").
			Updates(map[string]interface{}{
				"assigned_user_id": nil,
				"status":           models.StatusAvailable,
			}).Error; err != nil {
			return err
		}

		event = models.HistoryEvent{
			ItemID:       item.ID,
			UserID:       actorID(actor),
			Kind:         models.EventReturned,
			Color:        models.EventColor(models.EventReturned),
			Title:        "Item returned",
			Description:  fmt.Sprintf("Returned by %s", holder.DisplayName()),
			ReturnPhoto:  input.Photo,
			ReturnPhoto2: input.Photo2,
			ReturnNotes:  input.Notes,
			ReturnItems:  marshalReturnItems(input.Items),
		}
		if err := s.ledger.Append(tx, &event); err != nil {
			return err
		}

		if s.gen == nil {
			return nil
		}
		content, err := s.gen.ReturnForm(DocumentData{
			Company:     companySettings(tx),
			User:        holder,
			Item:        item,
			Date:        time.Now(),
			Signature:   input.Signature,
			ReturnItems: input.Items,
			Notes:       input.Notes,
		})
		if err != nil {
			return errs.Wrap(err, "generating return form")
		}

		doc := models.Document{
			ID:             uuid.NewString(),
			ItemID:         item.ID,
			UserID:         holder.ID,
			Type:           models.DocumentReturnForm,
			Content:        content,
			SignedAt:       time.Now(),
			ActorID:        actorID(actor),
			HistoryEventID: event.ID,
		}
		return tx.Create(&doc).Error
	})
	if err != nil {
		return err
	}

	s.publish(event)
	return nil
}

// Delete hard-removes an item together with its history and documents.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if !models.CanModify(actor.Role) {
		return errs.Forbiddenf("role %q may not delete items", actor.Role)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFoundf("item %s not found", id)
			}
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.HistoryEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
}

// History lists an item's history events, newest first.
func (s *Service) History(ctx context.Context, itemID string) ([]models.HistoryEvent, error) {
	if _, err := s.Get(ctx, itemID); err != nil {
		return nil, err
	}
	var events []models.HistoryEvent
	err := s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").Order("id DESC").
		Find(&events).Error
	return events, err
}

// Documents lists an item's documents, newest first. Content is not
// serialized in listings; use GetDocument for the bytes.
func (s *Service) Documents(ctx context.Context, itemID string) ([]models.Document, error) {
	if _, err := s.Get(ctx, itemID); err != nil {
		return nil, err
	}
	var docs []models.Document
	err := s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// GetDocument fetches one document including its content.
func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.NotFoundf("document %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func validateCreate(input CreateItemInput) error {
	required := []struct {
		field, value string
	}{
		{"category", input.Category},
		{"type", input.Type},
		{"manufacturer", input.Manufacturer},
		{"model", input.Model},
		{"serialNumber", input.SerialNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errs.Validationf(r.field, "%s is required", r.field)
		}
	}
	if input.PurchaseDate.IsZero() {
		return errs.Validationf("purchaseDate", "purchaseDate is required")
	}
	if input.WarrantyEnd.IsZero() {
		return errs.Validationf("warrantyEnd", "warrantyEnd is required")
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case models.StatusAvailable, models.StatusInUse, models.StatusMaintenance, models.StatusRetired:
		return true
	}
	return false
}

// applyPatch copies non-nil patch fields onto the item and returns the
// names of the changed fields. Required fields may change but never
// become blank; Create enforces the same rule.
func applyPatch(item *models.Item, input UpdateItemInput) ([]string, error) {
	required := []struct {
		field string
		src   *string
	}{
		{"category", input.Category},
		{"type", input.Type},
		{"manufacturer", input.Manufacturer},
		{"model", input.Model},
		{"serialNumber", input.SerialNumber},
	}
	for _, r := range required {
		if r.src != nil && strings.TrimSpace(*r.src) == "" {
			return nil, errs.Validationf(r.field, "%s cannot be blank", r.field)
		}
	}

	var changed []string
	set := func(name string, dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = append(changed, name)
		}
	}
	set("category", &item.Category, input.Category)
	set("type", &item.Type, input.Type)
	set("manufacturer", &item.Manufacturer, input.Manufacturer)
	set("model", &item.Model, input.Model)
	set("serialNumber", &item.SerialNumber, input.SerialNumber)
	set("location", &item.Location, input.Location)
	set("specs", &item.Specs, input.Specs)
	set("notes", &item.Notes, input.Notes)

	if input.Status != nil && *input.Status != item.Status {
		if !validStatus(*input.Status) {
			return nil, errs.Validationf("status", "unknown status %q", *input.Status)
		}
		// Assignment state is managed by Assign/Return only.
		if *input.Status == models.StatusInUse {
			return nil, errs.Validationf("status", "status in_use requires an assignment; use assign")
		}
		if item.AssignedUserID != nil {
			return nil, errs.Validationf("status", "item is assigned; return it before changing status")
		}
		item.Status = *input.Status
		changed = append(changed, "status")
	}
	if input.PurchaseDate != nil && !input.PurchaseDate.Equal(item.PurchaseDate) {
		item.PurchaseDate = *input.PurchaseDate
		changed = append(changed, "purchaseDate")
	}
	if input.WarrantyEnd != nil && !input.WarrantyEnd.Equal(item.WarrantyEnd) {
		item.WarrantyEnd = *input.WarrantyEnd
		changed = append(changed, "warrantyEnd")
	}
	if input.PurchasePrice != nil {
		item.PurchasePrice = input.PurchasePrice
		changed = append(changed, "purchasePrice")
	}
	if input.Photos != nil {
		item.Photos = photosJSON(input.Photos)
		changed = append(changed, "photos")
	}
	return changed, nil
}

func actorID(actor Actor) *string {
	if actor.ID == "" {
		return nil
	}
	id := actor.ID
	return &id
}

func photosJSON(photos []string) datatypes.JSON {
	if len(photos) == 0 {
		return nil
	}
	b, err := json.Marshal(photos)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func marshalReturnItems(items []ReturnedItem) string {
	if len(items) == 0 {
		return ""
	}
	b, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(b)
}

// companySettings loads the company profile for document headers; a
// missing row yields a blank header, not an error.
func companySettings(tx *gorm.DB) models.CompanySettings {
	var settings models.CompanySettings
	tx.First(&settings)
	return settings
}

// translateDuplicate maps unique-constraint violations to a Conflict
// naming the colliding field. Tag collisions are structurally impossible
// (the allocator holds a write lock), so in practice this reports serial
// numbers.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "duplicate key") &&
		!strings.Contains(msg, "unique constraint") &&
		!strings.Contains(msg, "23505") {
		return err
	}
	switch {
	case strings.Contains(msg, "serial_number"):
		return errs.Conflictf("serialNumber", "an item with this serial number already exists")
	case strings.Contains(msg, "asset_tag"), strings.Contains(msg, "sku"):
		return errs.Conflictf("assetTag", "asset tag already exists")
	default:
		return errs.Conflictf("", "duplicate value: %v", err)
	}
}

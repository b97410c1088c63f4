package service

import (
	"context"
	"fmt"
	"strconv"

	"mjmgmt/internal/common"
	"mjmgmt/internal/domain/model"
	"mjmgmt/internal/domain/repository"
	"mjmgmt/internal/platform/storage"

	"github.com/google/uuid"
)

type ListingService struct {
	listingRepo repository.ListingRepository
	uploads     *storage.UploadStore
}

func NewListingService(listingRepo repository.ListingRepository, uploads *storage.UploadStore) *ListingService {
	return &ListingService{listingRepo: listingRepo, uploads: uploads}
}

// CreateListingRequest carries the raw multipart form values; rent arrives
// as text and is coerced here so a bad value is its own error case.
type CreateListingRequest struct {
	Title       string
	Description string
	Rent        string
	Rooms       string
	Location    string
	Status      string
	Images      []string // saved public paths, upload order
}

type UpdateListingRequest struct {
	Title        *string              `json:"title,omitempty"`
	Description  *string              `json:"description,omitempty"`
	Rent         *float64             `json:"rent,omitempty"`
	Rooms        *model.ListingRooms  `json:"rooms,omitempty"`
	Location     *string              `json:"location,omitempty"`
	Status       *model.ListingStatus `json:"status,omitempty"`
	ImagesRemove []string             `json:"imagesRemove"`
}

func (s *ListingService) Create(ctx context.Context, userID string, req CreateListingRequest) (*model.Listing, error) {
	if req.Title == "" || req.Description == "" || req.Rent == "" || req.Rooms == "" || req.Location == "" || req.Status == "" {
		return nil, fmt.Errorf("all fields are required: %w", common.ErrValidation)
	}
	rent, err := strconv.ParseFloat(req.Rent, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid data types: %w", common.ErrValidation)
	}
	if !model.ListingRooms(req.Rooms).Valid() || !model.ListingStatus(req.Status).Valid() {
		return nil, fmt.Errorf("invalid enum values: %w", common.ErrValidation)
	}
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("at least one image is required: %w", common.ErrValidation)
	}

	listing := &model.Listing{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Rent:        rent,
		Rooms:       model.ListingRooms(req.Rooms),
		Location:    req.Location,
		Status:      model.ListingStatus(req.Status),
		Images:      req.Images,
		UserID:      userID,
	}
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

func (s *ListingService) FetchAll(ctx context.Context, userID string) ([]model.Listing, error) {
	listings, err := s.listingRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("no listings found for this user: %w", common.ErrNotFound)
	}
	return listings, nil
}

// FetchByID applies the read policy: available listings are public,
// unavailable ones are visible to their owner only. actorID is empty for
// anonymous readers.
func (s *ListingService) FetchByID(ctx context.Context, actorID, id string) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Status == model.StatusAvailable {
		return listing, nil
	}
	if actorID == "" || !listing.IsOwnedBy(actorID) {
		return nil, fmt.Errorf("unauthorized: %w", common.ErrUnauthorized)
	}
	return listing, nil
}

// Update edits listing fields and reconciles the image set: files slated
// for removal are deleted best-effort before the list is rewritten, new
// uploads are appended at the end.
func (s *ListingService) Update(ctx context.Context, actorID, id string, req UpdateListingRequest, newImages []string) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwnedBy(actorID) {
		return nil, fmt.Errorf("unauthorized: %w", common.ErrForbidden)
	}

	// Best-effort file cleanup; a missing or stubborn file never aborts
	// the update.
	removed := make(map[string]bool, len(req.ImagesRemove))
	for _, image := range req.ImagesRemove {
		removed[image] = true
		s.uploads.RemoveBestEffort(image)
	}
	images := make([]string, 0, len(listing.Images)+len(newImages))
	for _, image := range listing.Images {
		if !removed[image] {
			images = append(images, image)
		}
	}
	images = append(images, newImages...)
	listing.Images = images

	if req.Rooms != nil && !req.Rooms.Valid() {
		return nil, fmt.Errorf("invalid rooms: %w", common.ErrValidation)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("invalid status: %w", common.ErrValidation)
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Rent != nil {
		listing.Rent = *req.Rent
	}
	if req.Rooms != nil {
		listing.Rooms = *req.Rooms
	}
	if req.Location != nil {
		listing.Location = *req.Location
	}
	if req.Status != nil {
		listing.Status = *req.Status
	}

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return listing, nil
}

// Delete removes every referenced image file best-effort, then the record.
// A partially failed file batch still proceeds to the record delete.
func (s *ListingService) Delete(ctx context.Context, actorID, id string) error {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !listing.IsOwnedBy(actorID) {
		return fmt.Errorf("unauthorized: %w", common.ErrForbidden)
	}

	for _, image := range listing.Images {
		s.uploads.RemoveBestEffort(image)
	}
	if err := s.listingRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

// RemoveImage deletes a single image file and rewrites the listing's image
// list. Unlike the batch paths, a failed file delete fails the request.
func (s *ListingService) RemoveImage(ctx context.Context, actorID, id, image string) error {
	if image == "" {
		return fmt.Errorf("image path is required: %w", common.ErrValidation)
	}
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !listing.IsOwnedBy(actorID) {
		return fmt.Errorf("unauthorized: %w", common.ErrForbidden)
	}

	if err := s.uploads.Remove(image); err != nil {
		return fmt.Errorf("failed to remove image: %w", common.ErrInternalServer)
	}

	images := make([]string, 0, len(listing.Images))
	for _, img := range listing.Images {
		if img != image {
			images = append(images, img)
		}
	}
	listing.Images = images

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

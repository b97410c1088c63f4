package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"

	"mjmgmt/internal/api/middleware"
	"mjmgmt/internal/app/service"
	"mjmgmt/internal/common"
	"mjmgmt/internal/platform/storage"

	"github.com/go-chi/chi/v5"
)

const maxUploadMemory = 32 << 20

type ListingHandler struct {
	listingService *service.ListingService
	uploads        *storage.UploadStore
}

func NewListingHandler(listingService *service.ListingService, uploads *storage.UploadStore) *ListingHandler {
	return &ListingHandler{listingService: listingService, uploads: uploads}
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	imagePaths, err := h.uploads.SaveAll(h.formFiles(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	req := service.CreateListingRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Rent:        r.FormValue("rent"),
		Rooms:       r.FormValue("rooms"),
		Location:    r.FormValue("location"),
		Status:      r.FormValue("status"),
		Images:      imagePaths,
	}
	listing, err := h.listingService.Create(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, listing)
}

func (h *ListingHandler) FetchAll(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	listings, err := h.listingService.FetchAll(r.Context(), user.ID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listings)
}

// FetchByID is the one public listing route; identity is optional and only
// widens access to unavailable listings.
func (h *ListingHandler) FetchByID(w http.ResponseWriter, r *http.Request) {
	actorID := ""
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		actorID = user.ID
	}

	listing, err := h.listingService.FetchByID(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	var req service.UpdateListingRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid data payload: "+err.Error())
		return
	}

	newImages, err := h.uploads.SaveAll(h.formFiles(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	listing, err := h.listingService.Update(r.Context(), user.ID, chi.URLParam(r, "id"), req, newImages)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.listingService.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "Listing successfully removed."})
}

func (h *ListingHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	image, err := url.PathUnescape(chi.URLParam(r, "image"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid image path")
		return
	}

	if err := h.listingService.RemoveImage(r.Context(), user.ID, chi.URLParam(r, "id"), image); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "Image successfully removed."})
}

func (h *ListingHandler) formFiles(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File["images"]
}

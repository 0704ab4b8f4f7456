package main

import (
	"encoding/json"
	"net/http"
	"strings"
)

type bucketListResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

func bucketResponseFor(b *BucketList) bucketListResponse {
	return bucketListResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		Name:        b.Name,
		Description: b.Description,
		Status:      string(b.Status),
	}
}

func (a *App) HandleCreateBucketList(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	userID, err := a.currentUser.UserID(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	bucket, err := a.DB.CreateBucketList(&BucketList{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Status:      BucketActive,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, bucketResponseFor(bucket))
}

// HandleListBucketLists returns the caller's own lists.
func (a *App) HandleListBucketLists(w http.ResponseWriter, r *http.Request) {
	userID, err := a.currentUser.UserID(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	buckets, err := a.DB.ListBucketListsByUser(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]bucketListResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketResponseFor(b))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (a *App) HandleGetBucketList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bucket list id")
		return
	}

	bucket, err := a.DB.GetBucketList(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bucket == nil {
		writeDomainError(w, &NotFoundError{"Bucket list not found"})
		return
	}

	owner, err := a.currentUser.IsOwner(r.Context(), bucket.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !owner {
		writeDomainError(w, &ForbiddenError{"You don't have permission to view this bucket list"})
		return
	}

	writeSuccess(w, http.StatusOK, bucketResponseFor(bucket))
}

func (a *App) HandleUpdateBucketList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bucket list id")
		return
	}

	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	status := BucketStatus(strings.ToUpper(in.Status))
	if status == "" {
		status = BucketActive
	}
	if status != BucketActive && status != BucketCompleted {
		writeError(w, http.StatusBadRequest, "Status must be ACTIVE or COMPLETED")
		return
	}

	bucket, err := a.DB.GetBucketList(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bucket == nil {
		writeDomainError(w, &NotFoundError{"Bucket list not found"})
		return
	}

	owner, err := a.currentUser.IsOwner(r.Context(), bucket.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !owner {
		writeDomainError(w, &ForbiddenError{"You don't have permission to update this bucket list"})
		return
	}

	bucket.Name = in.Name
	bucket.Description = in.Description
	bucket.Status = status
	if err := a.DB.UpdateBucketList(bucket); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, bucketResponseFor(bucket))
}

func (a *App) HandleDeleteBucketList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid bucket list id")
		return
	}

	bucket, err := a.DB.GetBucketList(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bucket == nil {
		writeDomainError(w, &NotFoundError{"Bucket list not found"})
		return
	}

	owner, err := a.currentUser.IsOwner(r.Context(), bucket.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !owner {
		writeDomainError(w, &ForbiddenError{"You don't have permission to delete this bucket list"})
		return
	}

	if err := a.DB.DeleteBucketList(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

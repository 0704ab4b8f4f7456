package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

type blogPostResponse struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"userId"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
	Status   string `json:"status"`
	Views    int64  `json:"views"`
}

func blogResponseFor(p *BlogPost) blogPostResponse {
	return blogPostResponse{
		ID:       p.ID,
		UserID:   p.UserID,
		Title:    p.Title,
		Content:  p.Content,
		ImageURL: p.ImageURL,
		Status:   string(p.Status),
		Views:    p.Views,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func (a *App) HandleCreateBlogPost(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageURL string `json:"imageUrl"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Title == "" || in.Content == "" {
		writeError(w, http.StatusBadRequest, "Title and content are required")
		return
	}
	status := BlogStatus(strings.ToUpper(in.Status))
	if status == "" {
		status = BlogDraft
	}
	if status != BlogDraft && status != BlogPublished {
		writeError(w, http.StatusBadRequest, "Status must be DRAFT or PUBLISHED")
		return
	}

	userID, err := a.currentUser.UserID(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	post, err := a.DB.CreateBlogPost(&BlogPost{
		UserID:   userID,
		Title:    in.Title,
		Content:  in.Content,
		ImageURL: in.ImageURL,
		Status:   status,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, blogResponseFor(post))
}

func (a *App) HandleListBlogPosts(w http.ResponseWriter, r *http.Request) {
	status := BlogStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status != "" && status != BlogDraft && status != BlogPublished {
		writeError(w, http.StatusBadRequest, "Status must be DRAFT or PUBLISHED")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	posts, err := a.DB.ListBlogPosts(status, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]blogPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, blogResponseFor(p))
	}
	writeSuccess(w, http.StatusOK, out)
}

// HandleGetBlogPost serves the read path that feeds the view counter.
// Published posts count at most one view per viewer per TTL window;
// drafts are visible to their owner only and never counted.
func (a *App) HandleGetBlogPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid blog post id")
		return
	}

	post, err := a.DB.GetBlogPost(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if post == nil {
		writeDomainError(w, &NotFoundError{"Blog post not found"})
		return
	}

	if post.Status == BlogDraft {
		owner, err := a.currentUser.IsOwner(r.Context(), post.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !owner {
			writeDomainError(w, &ForbiddenError{"You don't have permission to view this draft blog post"})
			return
		}
	}

	if post.Status == BlogPublished {
		viewer := viewerIdentifier(r)
		if !a.views.HasRecentView(post.ID, viewer) {
			if err := a.DB.IncrementBlogViews(post.ID); err != nil {
				writeDomainError(w, err)
				return
			}
			a.views.RecordView(post.ID, viewer)
			post.Views++
		}
	}

	writeSuccess(w, http.StatusOK, blogResponseFor(post))
}

func (a *App) HandleUpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid blog post id")
		return
	}

	var in struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		ImageURL string `json:"imageUrl"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Title == "" || in.Content == "" {
		writeError(w, http.StatusBadRequest, "Title and content are required")
		return
	}
	status := BlogStatus(strings.ToUpper(in.Status))
	if status != BlogDraft && status != BlogPublished {
		writeError(w, http.StatusBadRequest, "Status must be DRAFT or PUBLISHED")
		return
	}

	post, err := a.DB.GetBlogPost(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if post == nil {
		writeDomainError(w, &NotFoundError{"Blog post not found"})
		return
	}

	owner, err := a.currentUser.IsOwner(r.Context(), post.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !owner {
		writeDomainError(w, &ForbiddenError{"You don't have permission to update this blog post"})
		return
	}

	post.Title = in.Title
	post.Content = in.Content
	post.ImageURL = in.ImageURL
	post.Status = status
	if err := a.DB.UpdateBlogPost(post); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, blogResponseFor(post))
}

func (a *App) HandleDeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid blog post id")
		return
	}

	post, err := a.DB.GetBlogPost(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if post == nil {
		writeDomainError(w, &NotFoundError{"Blog post not found"})
		return
	}

	owner, err := a.currentUser.IsOwner(r.Context(), post.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !owner {
		writeDomainError(w, &ForbiddenError{"You don't have permission to delete this blog post"})
		return
	}

	if err := a.DB.DeleteBlogPost(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// viewerIdentifier builds the dedup key for a viewer: authenticated
// identity first, then session cookie, then client IP, so logged-in users
// dedup by identity even when their session or IP changes.
func viewerIdentifier(r *http.Request) string {
	var b strings.Builder

	if p, ok := principalFrom(r.Context()); ok {
		b.WriteString("user:")
		b.WriteString(p.Username)
		b.WriteString(":")
	}

	if cookie, err := r.Cookie("session_id"); err == nil && cookie.Value != "" {
		b.WriteString("session:")
		b.WriteString(cookie.Value)
		b.WriteString(":")
	}

	b.WriteString("ip:")
	b.WriteString(clientIP(r))

	return b.String()
}

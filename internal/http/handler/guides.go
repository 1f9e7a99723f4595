package handler

import (
	"errors"
	"net/http"

	"rightguard/internal/content"
	"rightguard/internal/guide"

	"go.uber.org/zap"
)

type GuideHandler struct {
	Svc *guide.Service
	Log *zap.Logger
}

func (h *GuideHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	lang, valid := content.ParseLanguage(q.Get("language"))
	if state == "" || q.Get("language") == "" {
		fail(w, http.StatusBadRequest, "State and language are required")
		return
	}
	if !valid {
		fail(w, http.StatusBadRequest, "Unsupported language")
		return
	}

	res, err := h.Svc.Get(r.Context(), state, lang)
	if err != nil {
		if errors.Is(err, guide.ErrInvalidInput) {
			fail(w, http.StatusBadRequest, "State and language are required")
			return
		}
		h.Log.Error("legal guide error", zap.String("state", state), zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to fetch legal guide")
		return
	}

	msg := ""
	switch {
	case res.Generated && res.Cached:
		msg = "Guide generated and cached successfully"
	case res.Generated:
		msg = "Guide generated successfully (not cached)"
	}
	ok(w, res.Guide, msg)
}

type createGuideReq struct {
	State    string `json:"state"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Script   string `json:"script"`
}

func (h *GuideHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGuideReq
	if err := decode(r, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	lang, valid := content.ParseLanguage(req.Language)
	if req.Language != "" && !valid {
		fail(w, http.StatusBadRequest, "Unsupported language")
		return
	}

	g, err := h.Svc.Create(r.Context(), guide.CreateInput{
		State:    req.State,
		Language: lang,
		Title:    req.Title,
		Content:  req.Content,
		Script:   req.Script,
	})
	if err != nil {
		if errors.Is(err, guide.ErrInvalidInput) {
			fail(w, http.StatusBadRequest, "All fields are required")
			return
		}
		h.Log.Error("create guide error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Failed to create legal guide")
		return
	}
	ok(w, g, "Legal guide created successfully")
}

package handlers

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/transfer"
)

const maxUploadSize = 100 << 20

type ComposerHandler struct {
	sessions *composer.Registry
}

func NewComposerHandler(sessions *composer.Registry) *ComposerHandler {
	return &ComposerHandler{sessions: sessions}
}

func (h *ComposerHandler) session(c *fiber.Ctx) (*composer.Session, error) {
	return h.sessions.Get(GetUserID(c), c.Params("id"))
}

func (h *ComposerHandler) OpenSession(c *fiber.Ctx) error {
	var req transfer.OpenSession
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	s, err := h.sessions.Open(c.Context(), GetUserID(c), req.StoreID, req.EditPostID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.Snapshot())
}

func (h *ComposerHandler) GetSession(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

func (h *ComposerHandler) PatchDraft(c *fiber.Ctx) error {
	var req transfer.DraftPatch
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}

	if req.Content != nil {
		if err := s.SetContent(*req.Content); err != nil {
			return respondError(c, err)
		}
	}
	if req.Platforms != nil {
		platforms := make([]models.Platform, len(req.Platforms))
		for i, p := range req.Platforms {
			platforms[i] = models.Platform(p)
		}
		if err := s.SetPlatforms(platforms); err != nil {
			return respondError(c, err)
		}
	}
	if req.LibraryMedia != nil {
		ref := &composer.MediaRef{URL: req.LibraryMedia.URL, Kind: models.MediaKind(req.LibraryMedia.Kind)}
		if err := s.SelectLibraryMedia(ref); err != nil {
			return respondError(c, err)
		}
	}
	if req.Schedule != nil {
		sched := composer.ScheduleRequest{}
		if req.Schedule.Enabled {
			at, err := composer.ParseInstant(req.Schedule.At, req.Schedule.TimeZone)
			if err != nil {
				return respondError(c, err)
			}
			sched = composer.ScheduleRequest{Enabled: true, At: &at}
		}
		if err := s.SetSchedule(sched); err != nil {
			return respondError(c, err)
		}
	}

	return c.JSON(s.Snapshot())
}

func (h *ComposerHandler) AttachMedia(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}
	if file.Size > maxUploadSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File is too large",
		})
	}

	f, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return respondError(c, err)
	}

	upload := composer.Upload{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := s.AttachUpload(upload); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

func (h *ComposerHandler) ClearMedia(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.ClearMedia(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

func (h *ComposerHandler) SetParameter(c *fiber.Ctx) error {
	var req transfer.Parameter
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.SetParameter(c.Params("name"), req.Value); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

func (h *ComposerHandler) LockParameter(c *fiber.Ctx) error {
	var req transfer.ParameterLock
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.ToggleLock(c.Context(), c.Params("name"), *req.Locked); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

func (h *ComposerHandler) Generate(c *fiber.Ctx) error {
	var req transfer.Generate
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := s.Generate(c.Context(), composer.GenerateKind(req.Kind)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

func (h *ComposerHandler) RefreshConnections(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.RefreshConnections(c.Context()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(s.Snapshot())
}

type targetResult struct {
	Platform    models.Platform     `json:"platform"`
	Status      models.TargetStatus `json:"status"`
	RemoteID    string              `json:"remote_id,omitempty"`
	Error       string              `json:"error,omitempty"`
	AttemptedAt *time.Time          `json:"attempted_at,omitempty"`
}

func targetResults(targets []*models.PostTarget) []targetResult {
	out := make([]targetResult, 0, len(targets))
	for _, t := range targets {
		out = append(out, targetResult{
			Platform:    t.Platform,
			Status:      t.Status,
			RemoteID:    t.RemoteID,
			Error:       t.ErrorMessage,
			AttemptedAt: t.AttemptedAt,
		})
	}
	return out
}

func (h *ComposerHandler) Submit(c *fiber.Ctx) error {
	var req transfer.Submit
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	editing := s.Snapshot().EditingPostID != 0

	outcome, err := s.Submit(c.Context(), composer.SubmitOptions{
		Intent:                  composer.Intent(req.Action),
		AcknowledgeDisconnected: req.AcknowledgeDisconnected,
	})
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{
		"outcome": outcome.Name(),
		"post_id": outcome.PostID(),
		"session": s.Snapshot(),
	}
	status := fiber.StatusCreated
	if editing {
		status = fiber.StatusOK
	}

	switch o := outcome.(type) {
	case composer.Scheduled:
		body["scheduled_at"] = o.At
		body["targets"] = targetResults(o.Targets)
	case composer.Published:
		body["targets"] = targetResults(o.Targets)
	case composer.Partial:
		status = fiber.StatusMultiStatus
		body["delivered"] = targetResults(o.Delivered)
		body["failed"] = targetResults(o.Failed)
	case composer.Failed:
		status = fiber.StatusOK
		body["targets"] = targetResults(o.Targets)
	}

	return c.Status(status).JSON(body)
}

func (h *ComposerHandler) CloseSession(c *fiber.Ctx) error {
	if err := h.sessions.Close(GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

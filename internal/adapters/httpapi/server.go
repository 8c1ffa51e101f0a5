// Package httpapi exposes the triage engine over HTTP for the web
// front end.
package httpapi

import (
	"encoding/json"
	"errors"

	"github.com/Chance101/email-agent/internal/core"
	"github.com/Chance101/email-agent/internal/prefs"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Server is the HTTP adapter over the triage service.
type Server struct {
	app               *fiber.App
	service           *core.TriageService
	store             *prefs.Store
	mail              core.MailProvider
	logger            *zap.Logger
	listenAddress     string
	defaultMaxResults int64
}

// NewServer creates the HTTP server and registers its routes. mail may
// be nil; mailbox routes then answer 503 while classification and
// preference routes keep working.
func NewServer(
	service *core.TriageService,
	store *prefs.Store,
	mail core.MailProvider,
	logger *zap.Logger,
	listenAddress string,
	defaultMaxResults int64,
) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		service:           service,
		store:             store,
		mail:              mail,
		logger:            logger,
		listenAddress:     listenAddress,
		defaultMaxResults: defaultMaxResults,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Get("/emails", s.handleListEmails)
	api.Post("/classify", s.handleClassify)
	api.Get("/email/:id", s.handleGetEmail)
	api.Post("/email/:id/trash", s.handleTrash)
	api.Post("/email/:id/archive", s.handleArchive)
	api.Post("/email/:id/mark_read", s.handleMarkRead)
	api.Get("/email/:id/draft_reply", s.handleDraftReply)
	api.Post("/email/:id/send_reply", s.handleSendReply)
	api.Get("/preferences", s.handleGetPreferences)
	api.Post("/preferences", s.handleUpdatePreferences)
	api.Get("/contacts", s.handleContacts)
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start begins serving requests. It blocks until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.listenAddress))
	return s.app.Listen(s.listenAddress)
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// errorBody is the client-facing error shape; storage and lookup
// failures map to a distinguishing code and message, never a stack
// trace.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var storageErr *prefs.StorageError
	var validationErr *prefs.ValidationError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorBody{
			Error: "Email not found",
			Code:  "not_found",
		})
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: validationErr.Error(),
			Code:  "invalid_preference",
		})
	case errors.As(err, &storageErr):
		s.logger.Error("Preference storage failure", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
			Error: "Failed to access preference storage",
			Code:  "storage_error",
		})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
			Error: "Internal error",
			Code:  "internal_error",
		})
	}
}

func (s *Server) requireMail(c *fiber.Ctx) error {
	if s.mail == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorBody{
			Error: "Mail provider not configured",
			Code:  "mail_unavailable",
		})
	}
	return nil
}

// classifiedEmail is an email annotated with its verdict.
type classifiedEmail struct {
	*core.Email
	Classification *core.Verdict `json:"classification"`
}

func (s *Server) handleListEmails(c *fiber.Ctx) error {
	if err := s.requireMail(c); err != nil || s.mail == nil {
		return err
	}

	query := c.Query("query")
	maxResults := int64(c.QueryInt("max_results", int(s.defaultMaxResults)))
	filterMode := c.Query("filter", "important")

	providerQuery := query
	switch filterMode {
	case "important":
		providerQuery += " -category:promotions -category:social"
	case "unread":
		providerQuery += " is:unread"
	}

	emails, err := s.mail.List(c.Context(), providerQuery, maxResults)
	if err != nil {
		return s.respondError(c, err)
	}

	annotated := make([]classifiedEmail, 0, len(emails))
	for _, email := range emails {
		verdict := s.service.Classify(c.Context(), email)
		if filterMode == "important" && !verdict.ShowToUser {
			continue
		}
		annotated = append(annotated, classifiedEmail{Email: email, Classification: verdict})
	}

	return c.JSON(annotated)
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	var email core.Email
	if err := c.BodyParser(&email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "Invalid email document",
			Code:  "bad_request",
		})
	}
	return c.JSON(s.service.Classify(c.Context(), &email))
}

func (s *Server) handleGetEmail(c *fiber.Ctx) error {
	if err := s.requireMail(c); err != nil || s.mail == nil {
		return err
	}

	email, err := s.mail.Get(c.Context(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}

	verdict := s.service.Classify(c.Context(), email)
	return c.JSON(classifiedEmail{Email: email, Classification: verdict})
}

func (s *Server) handleTrash(c *fiber.Ctx) error {
	if err := s.requireMail(c); err != nil || s.mail == nil {
		return err
	}
	if err := s.mail.Trash(c.Context(), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Email moved to trash"})
}

func (s *Server) handleArchive(c *fiber.Ctx) error {
	if err := s.requireMail(c); err != nil || s.mail == nil {
		return err
	}
	if err := s.mail.ModifyLabels(c.Context(), c.Params("id"), nil, []string{"INBOX"}); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Email archived"})
}

func (s *Server) handleMarkRead(c *fiber.Ctx) error {
	if err := s.requireMail(c); err != nil || s.mail == nil {
		return err
	}
	if err := s.mail.ModifyLabels(c.Context(), c.Params("id"), nil, []string{"UNREAD"}); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Email marked as read"})
}

func (s *Server) handleDraftReply(c *fiber.Ctx) error {
	if err := s.requireMail(c); err != nil || s.mail == nil {
		return err
	}

	email, err := s.mail.Get(c.Context(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}

	draft := s.service.GenerateReply(c.Context(), email)
	return c.JSON(fiber.Map{"draft": draft})
}

func (s *Server) handleSendReply(c *fiber.Ctx) error {
	if err := s.requireMail(c); err != nil || s.mail == nil {
		return err
	}

	var req struct {
		Reply string `json:"reply"`
	}
	if err := c.BodyParser(&req); err != nil || req.Reply == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "Reply body is required",
			Code:  "bad_request",
		})
	}

	if err := s.mail.CreateDraft(c.Context(), c.Params("id"), req.Reply); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Reply draft created"})
}

func (s *Server) handleGetPreferences(c *fiber.Ctx) error {
	return c.JSON(s.store.Current())
}

func (s *Server) handleUpdatePreferences(c *fiber.Ctx) error {
	var partial map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &partial); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "Invalid preference document",
			Code:  "bad_request",
		})
	}

	updated, err := s.store.Update(partial)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Preferences updated",
		"preferences": updated,
	})
}

// handleContacts returns a fixed stub until contact lookup is backed
// by the People API.
func (s *Server) handleContacts(c *fiber.Ctx) error {
	return c.JSON([]fiber.Map{
		{"email": "contact1@example.com", "name": "Contact One"},
		{"email": "contact2@example.com", "name": "Contact Two"},
	})
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docstore/internal/http/middleware"
	"docstore/internal/model"
	"docstore/internal/service"
)

// deleteCaseDocumentsRequest is the body of POST /case-documents/delete.
type deleteCaseDocumentsRequest struct {
	CaseRef string `json:"case_ref"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: parse the request, hand off to a service, translate the error
// taxonomy to status codes.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.StoredDocumentService, caseSvc service.CaseDeletionService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocuments(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Get("/documents/:id/binary", GetDocumentBinary(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))

	app.Post("/case-documents/delete", DeleteCaseDocuments(caseSvc))
}

// HealthCheck verifies DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a trivial liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDocuments returns non-deleted documents with limit/offset pagination.
func ListDocuments(svc service.StoredDocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// UploadDocuments accepts a multipart batch under the "files" field.
// classification, roles and case_ref ride along as form values; the creator
// is the authenticated caller.
func UploadDocuments(svc service.StoredDocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := middleware.CallerFromCtx(c)
		if !caller.Authenticated() {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "Access Denied")
		}

		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILES_REQUIRED", "multipart form is required")
		}
		fhs := form.File["files"]
		if len(fhs) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILES_REQUIRED", "at least one file is required")
		}

		files := make([]model.UploadedFile, 0, len(fhs))
		closers := make([]func() error, 0, len(fhs))
		defer func() {
			for _, cl := range closers {
				cl()
			}
		}()
		for _, fh := range fhs {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			closers = append(closers, f.Close)

			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			files = append(files, model.UploadedFile{
				Content:  f,
				Size:     fh.Size,
				MimeType: ct,
				Filename: fh.Filename,
			})
		}

		cmd := service.UploadDocumentsCommand{
			Files:          files,
			Classification: model.Classification(c.FormValue("classification", string(model.ClassificationPrivate))),
			Roles:          splitFormList(c.FormValue("roles")),
			CreatorID:      caller.ID,
			CaseRef:        c.FormValue("case_ref"),
		}
		docs, err := svc.CreateFrom(c.UserContext(), cmd)
		if err != nil {
			var vErrs validation.Errors
			if errors.As(err, &vErrs) {
				return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid upload request")
			}
			return translateServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": docs})
	}
}

// GetDocument returns document metadata by ID.
func GetDocument(svc service.StoredDocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Read(c.UserContext(), id, middleware.CallerFromCtx(c))
		if err != nil {
			return translateServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// GetDocumentBinary streams the most recent content version of a document.
func GetDocumentBinary(svc service.StoredDocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		version, rc, err := svc.ReadBinary(c.UserContext(), id, middleware.CallerFromCtx(c))
		if err != nil {
			return translateServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, version.MimeType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", version.OriginalFilename))
		return c.SendStream(rc, int(version.Size))
	}
}

// DeleteDocument soft-deletes a document; ?permanent=true also removes the
// binaries of every content version.
func DeleteDocument(svc service.StoredDocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		permanent := c.Query("permanent") == "true"
		if err := svc.Delete(c.UserContext(), id, middleware.CallerFromCtx(c), permanent); err != nil {
			return translateServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteCaseDocuments soft-deletes every document linked to a case and
// sweeps their binaries.
func DeleteCaseDocuments(svc service.CaseDeletionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req deleteCaseDocumentsRequest
		if err := c.BodyParser(&req); err != nil || req.CaseRef == "" {
			return writeError(c, fiber.StatusBadRequest, "CASE_REF_REQUIRED", "case_ref is required")
		}
		res, err := svc.DeleteAllForCase(c.UserContext(), req.CaseRef, middleware.CallerFromCtx(c))
		if err != nil {
			return translateServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// translateServiceError maps the service error taxonomy onto status codes.
//
// Forbidden intentionally carries the same generic body whether or not the
// resource exists; only callers that pass the policy ever see NOT_FOUND.
func translateServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "Access Denied")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrStorageRead), errors.Is(err, service.ErrStorageWrite):
		return writeError(c, fiber.StatusBadGateway, "STORAGE_UNAVAILABLE", "storage temporarily unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func splitFormList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

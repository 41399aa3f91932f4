package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/craftpulse/craftpulse/internal/domain"
	apperrors "github.com/craftpulse/craftpulse/internal/errors"
)

const maxCommentLength = 500

// handleServerList serves page 1 of the listing.
func (s *Server) handleServerList(c echo.Context) error {
	return s.renderServerPage(c, 1)
}

// handleServerListPage serves an arbitrary page. Page 1 and out-of-range
// pages redirect to their canonical location instead of rendering.
func (s *Server) handleServerListPage(c echo.Context) error {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		return c.Redirect(http.StatusFound, "/servers")
	}
	if page == 1 {
		return c.Redirect(http.StatusFound, "/servers")
	}

	count, err := s.repos.Servers.Count(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to count servers", err)
	}
	if last := domain.LastPage(count); page > last {
		if last == 1 {
			return c.Redirect(http.StatusFound, "/servers")
		}
		return c.Redirect(http.StatusFound, fmt.Sprintf("/servers/%d", last))
	}

	return s.renderServerPage(c, page)
}

func (s *Server) renderServerPage(c echo.Context, page int) error {
	ctx := c.Request().Context()

	servers, err := s.repos.Servers.List(ctx, page)
	if err != nil {
		return apperrors.InternalError("failed to list servers", err)
	}
	count, err := s.repos.Servers.Count(ctx)
	if err != nil {
		return apperrors.InternalError("failed to count servers", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"servers":  servers,
		"page":     page,
		"lastPage": domain.LastPage(count),
		"count":    count,
	})
}

// handleCommentList returns a server's comments newest-first with author
// fields joined in.
func (s *Server) handleCommentList(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.FormValue("serverId"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("missing or invalid serverId")
	}

	comments, err := s.repos.Comments.ListByServer(c.Request().Context(), serverID)
	if err != nil {
		return apperrors.InternalError("failed to list comments", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"comments": comments})
}

func (s *Server) handleCommentCreate(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	serverID, err := strconv.ParseInt(c.FormValue("serverId"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("missing or invalid serverId")
	}

	content := strings.TrimSpace(c.FormValue("content"))
	if content == "" {
		return apperrors.ValidationError("comment cannot be empty")
	}
	if len(content) > maxCommentLength {
		return apperrors.ValidationError("comment is too long")
	}

	ctx := c.Request().Context()

	if _, err := s.repos.Servers.GetByID(ctx, serverID); err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			return apperrors.NotFoundError("server not found")
		}
		return apperrors.InternalError("failed to load server", err)
	}

	comment, err := s.repos.Comments.Create(ctx, &domain.Comment{
		ServerID: serverID,
		UserID:   user.ID,
		Content:  content,
	})
	if err != nil {
		return apperrors.InternalError("failed to create comment", err)
	}

	comment.Nick = user.Nick
	comment.Photo = user.Photo
	return c.JSON(http.StatusOK, map[string]any{"success": true, "comment": comment})
}

// handleVerifiedServers lists the servers owned by the logged-in user.
func (s *Server) handleVerifiedServers(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	servers, err := s.repos.Servers.ListByOwner(c.Request().Context(), user.ID)
	if err != nil {
		return apperrors.InternalError("failed to list owned servers", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "servers": servers})
}

func (s *Server) handleSavedServers(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	saved, err := s.repos.Saved.ListByUser(c.Request().Context(), user.ID)
	if err != nil {
		return apperrors.InternalError("failed to list saved servers", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"saved": saved})
}

func (s *Server) handleSaveServer(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	serverID, err := strconv.ParseInt(c.FormValue("serverId"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("missing or invalid serverId")
	}

	ctx := c.Request().Context()

	if _, err := s.repos.Servers.GetByID(ctx, serverID); err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			return apperrors.NotFoundError("server not found")
		}
		return apperrors.InternalError("failed to load server", err)
	}

	if err := s.repos.Saved.Save(ctx, user.ID, serverID); err != nil {
		return apperrors.InternalError("failed to save server", err)
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Message: "server saved"})
}

func (s *Server) handleUnsaveServer(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	serverID, err := strconv.ParseInt(c.FormValue("serverId"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("missing or invalid serverId")
	}

	if err := s.repos.Saved.Remove(c.Request().Context(), user.ID, serverID); err != nil {
		return apperrors.InternalError("failed to remove saved server", err)
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Message: "server removed"})
}

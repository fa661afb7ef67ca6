package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geoquest/internal/core/domain"
	"github.com/samirrijal/geoquest/internal/pkg/mapview"
)

// ListGamesHandler returns the public view of every stored game.
func ListGamesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		games, err := deps.Games.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(games)
		page := make([]domain.PublicGame, 0, limit)
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, games[i].Public())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetGameHandler returns one game without its answers.
func GetGameHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		game, err := deps.Games.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(game.Public())
	}
}

type importRequest struct {
	URL string `json:"url"`
}

// ImportGameHandler fetches a game document and stores it under :id.
func ImportGameHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req importRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		url := strings.TrimSpace(req.URL)
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return errBadRequest(c, "url must be an http(s) URL")
		}

		game, err := deps.Games.Import(c.UserContext(), c.Params("id"), url)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(game.Public())
	}
}

type startSessionRequest struct {
	GameID string `json:"game_id"`
}

// StartSessionHandler opens a play session on a stored game.
func StartSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.GameID == "" {
			return errBadRequest(c, "game_id is required")
		}

		snap, err := deps.Sessions.Start(c.UserContext(), req.GameID)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/sessions/" + snap.ID)
		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// GetSessionHandler returns the current session view.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(snap)
	}
}

// SessionMapHandler renders the session as a GeoJSON feature collection.
func SessionMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		body, err := mapview.Session(snap).MarshalJSON()
		if err != nil {
			return errInternal(c, "failed to render map")
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(body)
	}
}

// EndSessionHandler discards a session.
func EndSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.End(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type positionRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// SubmitPositionHandler feeds one location sample to the session.
func SubmitPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req positionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}

		id := c.Params("id")
		out, err := deps.Sessions.IngestPosition(c.UserContext(), id, *req.Lat, *req.Lon, domain.OriginHTTP)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(outcomeResponse(c, deps, id, out))
	}
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// SubmitAnswerHandler checks an answer for the unlocked question.
func SubmitAnswerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req answerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		id := c.Params("id")
		out, err := deps.Sessions.SubmitAnswer(c.UserContext(), id, req.Answer, domain.OriginHTTP)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(outcomeResponse(c, deps, id, out))
	}
}

type locationErrorRequest struct {
	Reason string `json:"reason"`
}

// LocationErrorHandler records that the player's location provider failed.
// The session stops accepting input.
func LocationErrorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationErrorRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		snap, err := deps.Sessions.ReportLocationError(c.UserContext(), c.Params("id"), req.Reason)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"status_text": locationErrorText(req.Reason),
			"session":     snap,
		})
	}
}

func outcomeResponse(c *fiber.Ctx, deps *Dependencies, id string, out domain.Outcome) OutcomeResponse {
	resp := OutcomeResponse{Outcome: out, StatusText: statusText(out)}
	if snap, err := deps.Sessions.Get(c.UserContext(), id); err == nil {
		resp.Session = &snap
	}
	return resp
}

package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"sight-gateway/internal/config"
	"sight-gateway/internal/dto"
	"sight-gateway/internal/pkg/serverutils"
	"sight-gateway/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
	Info(ctx *fiber.Ctx) error
}

type queryController struct {
	gatewayService service.IGatewayService
	cfg            *config.Config
}

func NewQueryController(gatewayService service.IGatewayService, cfg *config.Config) IQueryController {
	return &queryController{
		gatewayService: gatewayService,
		cfg:            cfg,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	r.Post("/query", c.Query)
	r.Post("/stream", c.Stream)
	r.Get("/info", c.Info)
}

// Query answers synchronously: the full pipeline runs, then one JSON body.
func (c *queryController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.gatewayService.Answer(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

// Stream answers over Server-Sent Events. Pipeline failures before the
// backend stream opens still surface as HTTP errors; after that, failures
// travel as in-band error events.
func (c *queryController) Stream(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The body writer below outlives this handler, so the streaming session
	// runs on its own cancellable context rather than the request's.
	streamCtx, cancel := context.WithCancel(context.Background())

	handle, err := c.gatewayService.Stream(streamCtx, &req)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// Cancelling releases the backend streaming session on every exit
		// path: normal end, backend error, or client disconnect.
		defer cancel()

		for event := range handle.Events {
			payload, err := json.Marshal(event)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			// Flush per event so each token reaches the client immediately.
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}

// Info returns the process configuration snapshot verbatim.
func (c *queryController) Info(ctx *fiber.Ctx) error {
	return ctx.JSON(c.cfg.Snapshot())
}

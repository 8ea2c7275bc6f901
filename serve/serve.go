// Package serve exposes a trained classifier over HTTP.
package serve

import (
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/exprnet/classifier"
	"github.com/fumitoshi0524/exprnet/nn"
	"github.com/fumitoshi0524/exprnet/tensor"
)

type PredictRequest struct {
	Vectors [][]float64 `json:"vectors"`
}

type PredictResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
	Labels        []int       `json:"labels"`
}

type Server struct {
	mu  sync.Mutex
	net *nn.Sequential
	dim int
}

func New(net *nn.Sequential) *Server {
	return &Server{net: net, dim: classifier.InputDim(net)}
}

// App wires the routes:
//
//	GET  /healthz  reports the expected input width
//	POST /predict  {"vectors": [[...], ...]} → class probabilities and labels
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "features": s.dim})
	})
	app.Post("/predict", s.predict)
	return app
}

func (s *Server) predict(c *fiber.Ctx) error {
	var req PredictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	x, err := s.matrix(req.Vectors)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	probs, err := classifier.Predict(s.net, x)
	s.mu.Unlock()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	resp := PredictResponse{Labels: tensor.ArgmaxRows(probs)}
	for i := range req.Vectors {
		resp.Probabilities = append(resp.Probabilities, probs.Row(i))
	}
	return c.JSON(resp)
}

func (s *Server) matrix(vectors [][]float64) (*mat.Dense, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors given")
	}
	x := mat.NewDense(len(vectors), s.dim, nil)
	for i, v := range vectors {
		if len(v) != s.dim {
			return nil, fmt.Errorf("vector %d has %d values, model expects %d", i, len(v), s.dim)
		}
		x.SetRow(i, v)
	}
	return x, nil
}

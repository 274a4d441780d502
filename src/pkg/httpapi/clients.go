package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"belegpilot/src/pkg/model"
)

// clientResponse adds the derived tax-year count mandanten.py's
// MandantResponse carries (anzahl_steuerjahre).
type clientResponse struct {
	model.Client
	TaxYearCount int `json:"anzahl_steuerjahre"`
}

func (s *Server) enrichClient(c model.Client) clientResponse {
	return clientResponse{Client: c, TaxYearCount: len(s.Store.ListTaxYearsByClient(c.ID))}
}

func (s *Server) createClient(c echo.Context) error {
	var in model.Client
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid client payload")
	}
	if in.Name == "" {
		return badRequest(c, "name is required")
	}
	created := s.Store.CreateClient(in)
	return c.JSON(http.StatusCreated, s.enrichClient(created))
}

func (s *Server) listClients(c echo.Context) error {
	all := s.Store.ListClients()
	out := make([]clientResponse, 0, len(all))
	for _, cl := range all {
		out = append(out, s.enrichClient(cl))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getClient(c echo.Context) error {
	cl, err := s.Store.GetClient(c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, s.enrichClient(cl))
}

func (s *Server) updateClient(c echo.Context) error {
	id := c.Param("id")
	existing, err := s.Store.GetClient(id)
	if err != nil {
		return storeError(c, err)
	}

	var in model.Client
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid client payload")
	}
	in.ID = existing.ID

	updated, err := s.Store.UpdateClient(in)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, s.enrichClient(updated))
}

func (s *Server) deleteClient(c echo.Context) error {
	if err := s.Store.DeleteClient(c.Param("id")); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

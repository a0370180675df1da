package router

import (
	"net/http"

	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

type unitRequest struct {
	Code string `json:"kode_unit"`
	Name string `json:"nama_unit"`
}

type unitCreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id_unit"`
}

// GetApiunit lists every unit.
func (router *Router) GetApiunit(response http.ResponseWriter, request *http.Request) {
	units, err := router.service.ListUnits(request.Context())
	if err != nil {
		writeError(response, request, err)
		return
	}
	if units == nil {
		units = []models.Unit{}
	}

	writeJSON(response, http.StatusOK, units)
}

// PostApiunit adds a unit.
func (router *Router) PostApiunit(response http.ResponseWriter, request *http.Request) {
	var body unitRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(response, request, err)
		return
	}

	unitID, err := router.service.CreateUnit(request.Context(), models.Unit{Code: body.Code, Name: body.Name})
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, unitCreatedResponse{
		Message: "Unit berhasil ditambahkan",
		ID:      unitID,
	})
}

// PutApiunitid replaces the code and name of a unit.
func (router *Router) PutApiunitid(response http.ResponseWriter, request *http.Request) {
	unitID, ok := pathID(request)
	if !ok {
		writeError(response, request, models.ErrUnitNotFound)
		return
	}

	var body unitRequest
	if err := decodeJSON(request, &body); err != nil {
		writeError(response, request, err)
		return
	}

	err := router.service.UpdateUnit(request.Context(), models.Unit{ID: unitID, Code: body.Code, Name: body.Name})
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeMessage(response, http.StatusOK, "Unit berhasil diupdate")
}

// DeleteApiunitid removes a unit.
func (router *Router) DeleteApiunitid(response http.ResponseWriter, request *http.Request) {
	unitID, ok := pathID(request)
	if !ok {
		writeError(response, request, models.ErrUnitNotFound)
		return
	}

	if err := router.service.DeleteUnit(request.Context(), unitID); err != nil {
		writeError(response, request, err)
		return
	}

	writeMessage(response, http.StatusOK, "Unit berhasil dihapus")
}

package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// messageResponse is the body of every non-data answer.
type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// internalErrorMessage is the message of every 500.
const internalErrorMessage = "Terjadi kesalahan"

// errorStatuses maps the domain errors clients can cause to a status and a
// message. Anything else is a 500.
var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{models.ErrMissingCredentials, http.StatusBadRequest, "Username dan password harus diisi"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "Username atau password salah"},
	{models.ErrDuplicateUsername, http.StatusBadRequest, "Username sudah digunakan"},
	{models.ErrInvalidRole, http.StatusBadRequest, "Role harus admin atau user"},
	{models.ErrDuplicateUnitCode, http.StatusBadRequest, "Kode unit sudah digunakan"},
	{models.ErrUnknownUnit, http.StatusBadRequest, "Unit yang dipilih tidak terdaftar"},
	{models.ErrDuplicateUnitInRequest, http.StatusBadRequest, "Unit yang sama dipilih lebih dari sekali"},
	{models.ErrFileTooLarge, http.StatusBadRequest, "Ukuran file melebihi batas maksimal"},
	{models.ErrFileTypeNotAllowed, http.StatusBadRequest, "Hanya file PDF, DOC, DOCX, JPG, JPEG, PNG yang diperbolehkan"},
	{models.ErrLetterNotFound, http.StatusNotFound, "Surat tidak ditemukan"},
	{models.ErrUnitNotFound, http.StatusNotFound, "Unit tidak ditemukan"},
	{models.ErrAttachmentNotFound, http.StatusNotFound, "File tidak ditemukan"},
}

// errBadRequestBody is returned for bodies that cannot be decoded.
var errBadRequestBody = errors.New("malformed request body")

func writeJSON(response http.ResponseWriter, status int, body any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder(response).Encode()`: ", zap.Error(err))
	}
}

func writeMessage(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, messageResponse{Message: message})
}

// errorResponse returns the status and body err is answered with.
func errorResponse(err error) (int, messageResponse) {
	for _, known := range errorStatuses {
		if errors.Is(err, known.err) {
			return known.status, messageResponse{Message: known.message}
		}
	}

	if errors.Is(err, errBadRequestBody) {
		return http.StatusBadRequest, messageResponse{Message: "Format permintaan tidak valid"}
	}

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, messageResponse{Message: "Data tidak valid: " + invalidFields(validationErr)}
	}

	return http.StatusInternalServerError, messageResponse{Message: internalErrorMessage, Error: err.Error()}
}

// invalidFields names the fields that failed validation, or describes the
// failure when it was not a field check.
func invalidFields(validationErr *models.ValidationError) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(validationErr.Err, &fieldErrors) {
		return validationErr.Err.Error()
	}

	names := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		names = append(names, fieldError.Field())
	}
	return strings.Join(names, ", ")
}

func writeError(response http.ResponseWriter, request *http.Request, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		logger.Log.Errorw("request failed", "uri", request.RequestURI, "method", request.Method, zap.Error(err))
	} else {
		logger.Log.Debugw("request rejected", "uri", request.RequestURI, "status", status, zap.Error(err))
	}

	writeJSON(response, status, body)
}

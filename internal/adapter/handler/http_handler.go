package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
	"github.com/Obsessive-Curiosity/commerce-core/internal/core/service"
)

// HTTPHandler is the thin inbound boundary of the transactional core. It
// validates shape, delegates, and maps typed errors to statuses; no business
// logic lives here.
type HTTPHandler struct {
	inventory *service.InventoryService
	payments  *service.PaymentService
}

func NewHTTPHandler(inventory *service.InventoryService, payments *service.PaymentService) *HTTPHandler {
	return &HTTPHandler{inventory: inventory, payments: payments}
}

type itemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type stockRequest struct {
	Items []itemPayload `json:"items"`
}

type itemResultPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Remaining int    `json:"remaining"`
}

type itemFailurePayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

type deductResponse struct {
	SuccessfulItems []itemResultPayload  `json:"successful_items"`
	FailedItems     []itemFailurePayload `json:"failed_items"`
}

type restoreResponse struct {
	RestoredItems []itemResultPayload `json:"restored_items"`
}

type paymentRequest struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

type paymentResponse struct {
	OrderID       string `json:"order_id"`
	PaymentAmount int    `json:"payment_amount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) DeductStock(w http.ResponseWriter, r *http.Request) {
	items, ok := h.decodeItems(w, r)
	if !ok {
		return
	}

	result, err := h.inventory.DeductStock(r.Context(), items)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := deductResponse{
		SuccessfulItems: toResultPayloads(result.Succeeded),
		FailedItems:     make([]itemFailurePayload, 0, len(result.Failed)),
	}
	for _, f := range result.Failed {
		resp.FailedItems = append(resp.FailedItems, itemFailurePayload{
			ProductID: f.ProductID,
			Quantity:  f.Quantity,
			Reason:    f.Reason.Error(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) RestoreStock(w http.ResponseWriter, r *http.Request) {
	items, ok := h.decodeItems(w, r)
	if !ok {
		return
	}

	restored, err := h.inventory.RestoreStock(r.Context(), items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restoreResponse{RestoredItems: toResultPayloads(restored)})
}

func (h *HTTPHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.OrderID == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required fields"})
		return
	}

	result, err := h.payments.ProcessPayment(r.Context(), req.OrderID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{
		OrderID:       result.OrderID,
		PaymentAmount: result.PaymentAmount,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) decodeItems(w http.ResponseWriter, r *http.Request) ([]service.ItemRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return nil, false
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "items required"})
		return nil, false
	}

	items := make([]service.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "items need product_id and positive quantity"})
			return nil, false
		}
		items = append(items, service.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return items, true
}

func toResultPayloads(items []service.ItemResult) []itemResultPayload {
	payloads := make([]itemResultPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, itemResultPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Remaining: item.Remaining,
		})
	}
	return payloads
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var insufficientStock *domain.InsufficientStockError
	var insufficientBalance *domain.InsufficientBalanceError
	var invalidTransition *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrEmptyOrder):
		status = http.StatusBadRequest
	case errors.As(err, &insufficientBalance):
		status = http.StatusPaymentRequired
	case errors.As(err, &insufficientStock):
		status = http.StatusGone
	case errors.As(err, &invalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStockNotFound),
		errors.Is(err, domain.ErrBalanceNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrOrderOwnership):
		// Ownership maps to 404 as well: the endpoint does not reveal
		// whether the order exists under another user.
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRetryExhausted):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

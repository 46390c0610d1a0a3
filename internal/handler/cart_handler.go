package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"conecart/internal/domain"
	"conecart/internal/middleware"
	"conecart/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// CartHandler exposes the cart contract consumed by the storefront sync
// engine. Unlike the account endpoints it answers in the contract's own
// wire shapes ({headerId, items[]} and {isSuccess, message}).
type CartHandler struct {
	cartService *service.CartService
	validate    *validator.Validate
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    validator.New(),
	}
}

func (h *CartHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if middleware.GetUserID(r) != userID {
		writeJSON(w, http.StatusForbidden, domain.FetchCartResponse{Message: "not your cart"})
		return
	}

	cart, err := h.cartService.Fetch(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, domain.FetchCartResponse{Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, domain.FetchCartResponse{IsSuccess: true, Cart: cart})
}

func (h *CartHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.UpsertCartResponse{Message: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.UpsertCartResponse{Message: err.Error()})
		return
	}
	if middleware.GetUserID(r) != req.UserID {
		writeJSON(w, http.StatusForbidden, domain.UpsertCartResponse{Message: "not your cart"})
		return
	}

	cart, err := h.cartService.Upsert(&req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrDuplicateLine) || errors.Is(err, service.ErrInvalidQuantity) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, domain.UpsertCartResponse{Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, domain.UpsertCartResponse{
		IsSuccess: true,
		HeaderID:  cart.HeaderID,
		Items:     cart.Items,
	})
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req domain.RemoveCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.StatusResponse{Message: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.StatusResponse{Message: err.Error()})
		return
	}

	err := h.cartService.Remove(req.HeaderID, middleware.GetUserID(r))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotCartOwner) {
			status = http.StatusForbidden
		}
		writeJSON(w, status, domain.StatusResponse{Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, domain.StatusResponse{IsSuccess: true})
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if middleware.GetUserID(r) != userID {
		writeJSON(w, http.StatusForbidden, domain.StatusResponse{Message: "not your cart"})
		return
	}

	if _, err := h.cartService.Checkout(userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrCartEmpty) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, domain.StatusResponse{Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, domain.StatusResponse{IsSuccess: true})
}

func (h *CartHandler) Orders(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if middleware.GetUserID(r) != userID {
		writeJSON(w, http.StatusForbidden, domain.StatusResponse{Message: "not your orders"})
		return
	}

	orders, err := h.cartService.Orders(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, domain.StatusResponse{Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

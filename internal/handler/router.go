package handler

import "net/http"

func Router(h *BoardHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/board", h.GetBoard)
	mux.HandleFunc("POST /api/v1/orders/{order_id}/claim", h.Claim)
	mux.HandleFunc("POST /api/v1/orders/{order_id}/unclaim", h.Unclaim)
	mux.HandleFunc("POST /api/v1/orders/{order_id}/status", h.SetStatus)
	return mux
}

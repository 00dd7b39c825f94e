package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arena-backend/internal/arena"
	"github.com/DoyleJ11/arena-backend/internal/hub"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateArena(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *arena.Arena, 1)
			if !h.Send(hub.GetArena{Code: c, Reply: reply}) {
				http.Error(w, "shutting down", http.StatusServiceUnavailable)
				return
			}
			if <-reply == nil {
				code = c
				break
			}
			log.Debug("collision on arena code, regenerating", zap.String("code", c))
		}

		reply := make(chan *arena.Arena, 1)
		if !h.Send(hub.CreateArena{Code: code, Reply: reply}) {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		if <-reply == nil {
			http.Error(w, "too many arenas", http.StatusServiceUnavailable)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func ListArenas(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []hub.ArenaInfo, 1)
		if !h.Send(hub.ListArenas{Reply: reply}) {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, <-reply)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

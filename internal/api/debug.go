package api

import (
	"net/http"
	"os"

	"loadplan/internal/buildinfo"
)

// DebugInfoHandler exposes build metadata and the effective runtime toggles.
func (s *Server) DebugInfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	info := map[string]any{
		"build":    buildinfo.Info(),
		"strategy": s.Config.Strategy,
		"store":    storeKind(),
		"broker":   brokerKind(),
	}
	writeJSON(w, http.StatusOK, info)
}

func storeKind() string {
	if os.Getenv("DATABASE_URL") != "" {
		return "postgres"
	}
	return "memory"
}

func brokerKind() string {
	if os.Getenv("REDIS_URL") != "" {
		return "redis"
	}
	return "memory"
}

package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Clark-Hu/foodgram/internal/shoppinglist"
)

const shoppingListFilename = "shopping_list.txt"

func (s *Server) handleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	v, _ := viewerFrom(r.Context())

	lines, err := s.shopping.Aggregate(r.Context(), v.user.ID)
	if err != nil {
		if errors.Is(err, shoppinglist.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.logger.Error().Err(err).Int64("user_id", v.user.ID).Msg("aggregate shopping list failed")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build shopping list")
		return
	}

	body := shoppinglist.Render(lines)
	s.metrics.ShoppingListDownloads.Inc()
	s.metrics.ShoppingListLines.Observe(float64(len(lines)))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

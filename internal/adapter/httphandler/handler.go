package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/pcbuild/internal/core/builder"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/niksmo/pcbuild/internal/core/port"
	"github.com/niksmo/pcbuild/internal/core/service"
)

// GET v1/configurations?type=gaming&tier=budget (200 OK, 400 Bad request)
// POST v1/configurations/custom JSON {"budget", "type"} (200 OK, 400 Bad request, 422 Unprocessable entity)

type ConfigurationsHandler struct {
	provider port.ConfigurationsProvider
}

func RegisterConfigurations(mux *http.ServeMux, provider port.ConfigurationsProvider) {
	h := ConfigurationsHandler{provider}
	mux.HandleFunc("GET /v1/configurations", h.GetPresets)
	mux.HandleFunc("POST /v1/configurations/custom", h.PostCustom)
}

func (h ConfigurationsHandler) GetPresets(w http.ResponseWriter, r *http.Request) {
	const op = "ConfigurationsHandler.GetPresets"
	log := slog.With("op", op)

	var (
		pcType domain.PCType
		tier   domain.Tier
		err    error
	)
	query := r.URL.Query()
	if v := query.Get("type"); v != "" {
		if pcType, err = domain.ParsePCType(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v := query.Get("tier"); v != "" {
		if pcType == "" {
			http.Error(w, "tier requires type", http.StatusBadRequest)
			return
		}
		if tier, err = domain.ParseTier(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	cs, err := h.provider.PresetConfigurations(r.Context())
	if err != nil {
		http.Error(w, "failed to build configurations", http.StatusServiceUnavailable)
		log.Error("failed to get presets", "err", err)
		return
	}

	switch {
	case tier != "":
		c, _ := cs.Get(pcType, tier)
		writeJSON(w, http.StatusOK, toConfigurationView(c), log)
	case pcType != "":
		writeJSON(w, http.StatusOK, toPCTypeView(pcType, cs[pcType]), log)
	default:
		out := make(map[string]PCTypeConfigurations, len(cs))
		for t, byTier := range cs {
			out[string(t)] = toPCTypeView(t, byTier)
		}
		writeJSON(w, http.StatusOK, out, log)
	}
}

func (h ConfigurationsHandler) PostCustom(w http.ResponseWriter, r *http.Request) {
	const op = "ConfigurationsHandler.PostCustom"
	log := slog.With("op", op)

	var req CustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	pcType, err := domain.ParsePCType(req.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.provider.CustomConfiguration(r.Context(), req.Budget, pcType)
	if err != nil {
		if errors.Is(err, service.ErrUnavailable) {
			http.Error(w, "no configuration for budget", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "failed to build configuration", http.StatusServiceUnavailable)
		log.Error("failed to get custom configuration", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, toCustomView(c), log)
}

// GET v1/components?slot=processor&q=ryzen (200 OK, 400 Bad request)

type ComponentsHandler struct {
	finder port.ComponentsFinder
}

func RegisterComponents(mux *http.ServeMux, finder port.ComponentsFinder) {
	h := ComponentsHandler{finder}
	mux.HandleFunc("GET /v1/components", h.GetComponents)
}

func (h ComponentsHandler) GetComponents(w http.ResponseWriter, r *http.Request) {
	const op = "ComponentsHandler.GetComponents"
	log := slog.With("op", op)

	query := r.URL.Query()
	slot, err := domain.ParseSlot(query.Get("slot"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ps, err := h.finder.Components(r.Context(), slot, query.Get("q"))
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSlot) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to find components", http.StatusServiceUnavailable)
		log.Error("failed to find components", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductsView(ps), log)
}

// POST v1/builds JSON {"components": {"processor": "id"}} (202 Accepted, 400 Bad request, 404 Not found, 422 Unprocessable entity)

type BuildsHandler struct {
	submitter port.BuildSubmitter
}

func RegisterBuilds(mux *http.ServeMux, submitter port.BuildSubmitter) {
	h := BuildsHandler{submitter}
	mux.HandleFunc("POST /v1/builds", h.PostBuild)
}

func (h BuildsHandler) PostBuild(w http.ResponseWriter, r *http.Request) {
	const op = "BuildsHandler.PostBuild"
	log := slog.With("op", op)

	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	selection := make(map[domain.Slot]string, len(req.Components))
	for s, id := range req.Components {
		selection[domain.Slot(s)] = id
	}

	b, err := h.submitter.SubmitBuild(r.Context(), selection)
	if err != nil {
		code := buildErrStatus(err)
		if code == http.StatusServiceUnavailable {
			http.Error(w, "failed to submit build", code)
			log.Error("failed to submit build", "err", err)
			return
		}
		http.Error(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusAccepted, toBuildView(b), log)
	log.Info("accepted", "buildID", b.ID)
}

func buildErrStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownSlot):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, builder.ErrCategoryMismatch),
		errors.Is(err, builder.ErrOutOfStock),
		errors.Is(err, builder.ErrIncompleteBuild):
		return http.StatusUnprocessableEntity
	}
	return http.StatusServiceUnavailable
}

// POST v1/products JSON (202 Accepted, 400 Bad request)

type ProductsHandler struct {
	pSender port.ProductsSender
}

func RegisterProducts(mux *http.ServeMux, pSender port.ProductsSender) {
	h := ProductsHandler{pSender}
	mux.HandleFunc("POST /v1/products", h.PostProducts)
}

func (h ProductsHandler) PostProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.PostProducts"
	log := slog.With("op", op)

	var ps []Product
	err := json.NewDecoder(r.Body).Decode(&ps)
	if err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	if err := validateProducts(ps); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = h.pSender.SendProducts(r.Context(), h.toDomain(ps))
	if err != nil {
		http.Error(
			w, "failed to accept products", http.StatusServiceUnavailable,
		)
		log.Error("failed to send products", "err", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	if _, err = w.Write([]byte("Accepted")); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Info("accepted", "nProducts", len(ps))
}

// toDomain passes categories through as sent by the shop, the normalizer
// maps them onto the vocabulary.
func (h ProductsHandler) toDomain(ps []Product) (domainPs []domain.Product) {
	for _, p := range ps {
		domainPs = append(domainPs, domain.Product{
			ProductID:     p.ProductID,
			Name:          p.Name,
			ModelNo:       p.ModelNo,
			Brand:         p.Brand,
			Category:      domain.Category(p.Category),
			Description:   p.Description,
			Price:         p.Price,
			DiscountPrice: p.DiscountPrice,
			OnDiscount:    p.OnDiscount,
			Stock:         p.Stock,
		})
	}
	return domainPs
}

var (
	errNoProducts     = errors.New("no products")
	errEmptyProductID = errors.New("product_id is empty")
	errNegativePrice  = errors.New("price is negative")
)

func validateProducts(ps []Product) error {
	if len(ps) == 0 {
		return errNoProducts
	}
	var errs []error
	for i, p := range ps {
		if p.ProductID == "" {
			errs = append(errs, fmt.Errorf("products[%d]: %w", i, errEmptyProductID))
		}
		if p.Price.IsNegative() || p.DiscountPrice.IsNegative() {
			errs = append(errs, fmt.Errorf("products[%d]: %w", i, errNegativePrice))
		}
	}
	return errors.Join(errs...)
}

func writeJSON(w http.ResponseWriter, code int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/techlog-api/internal/middleware"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/internal/services"
)

type RegistryHandler struct {
	registryService *services.RegistryService
	operatorService *services.OperatorService
}

func NewRegistryHandler(registryService *services.RegistryService, operatorService *services.OperatorService) *RegistryHandler {
	return &RegistryHandler{registryService: registryService, operatorService: operatorService}
}

// @Summary List Aircraft
// @Tags Registry
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /aircraft [get]
func (h *RegistryHandler) ListAircraft(c *gin.Context) {
	aircraft, err := h.registryService.ListAircraft(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aircraft": aircraft})
}

// @Summary Register Aircraft
// @Description Registers an aircraft under the next REGN number
// @Tags Registry
// @Accept json
// @Produce json
// @Param aircraft body services.AircraftInput true "Aircraft"
// @Success 201 {object} models.Aircraft
// @Security BearerAuth
// @Router /aircraft [post]
func (h *RegistryHandler) CreateAircraft(c *gin.Context) {
	var input services.AircraftInput
	if err := BindNestedOrFlat(c, "aircraft", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	aircraft, err := h.registryService.CreateAircraft(c.Request.Context(), input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, aircraft)
}

// @Summary List Airports
// @Tags Registry
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /airports [get]
func (h *RegistryHandler) ListAirports(c *gin.Context) {
	airports, err := h.registryService.ListAirports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"airports": airports})
}

// @Summary Register Airport
// @Tags Registry
// @Accept json
// @Produce json
// @Param airport body services.AirportInput true "Airport"
// @Success 201 {object} models.Airport
// @Security BearerAuth
// @Router /airports [post]
func (h *RegistryHandler) CreateAirport(c *gin.Context) {
	var input services.AirportInput
	if err := BindNestedOrFlat(c, "airport", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	airport, err := h.registryService.CreateAirport(c.Request.Context(), input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, airport)
}

// @Summary List Flights
// @Tags Registry
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /flights [get]
func (h *RegistryHandler) ListFlights(c *gin.Context) {
	flights, err := h.registryService.ListFlights(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flights": flights})
}

// @Summary Create Flight
// @Description Creates a flight and its log page. A current flight pushes the others one leg back.
// @Tags Registry
// @Accept json
// @Produce json
// @Param flight body services.FlightInput true "Flight"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /flights [post]
func (h *RegistryHandler) CreateFlight(c *gin.Context) {
	var input services.FlightInput
	if err := BindNestedOrFlat(c, "flight", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flight, log, err := h.registryService.CreateFlight(c.Request.Context(), input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flight": flight, "log": log.ToSummary()})
}

// @Summary List Deferrals
// @Tags Deferrals
// @Produce json
// @Param status query string false "open, entered, cleared or outstanding"
// @Param category query string false "A, B, C, D or U"
// @Param search_term query string false "Search number, description or MEL/CDL reference"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /deferrals [get]
func (h *RegistryHandler) ListDeferrals(c *gin.Context) {
	deferrals, err := h.registryService.ListDeferrals(c.Request.Context(), deferralQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deferrals": deferrals})
}

// @Summary List Operators
// @Tags Registry
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /operators [get]
func (h *RegistryHandler) ListOperators(c *gin.Context) {
	operators, err := h.operatorService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operators": operators})
}

// @Summary Register Operator
// @Description Registers a certifying operator; a password, when set, is required at sign-off
// @Tags Registry
// @Accept json
// @Produce json
// @Param operator body services.OperatorInput true "Operator"
// @Success 201 {object} models.Operator
// @Security BearerAuth
// @Router /operators [post]
func (h *RegistryHandler) CreateOperator(c *gin.Context) {
	var input services.OperatorInput
	if err := BindNestedOrFlat(c, "operator", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	operator, err := h.operatorService.Create(c.Request.Context(), input, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, operator)
}

func deferralQuery(c *gin.Context) *repository.DeferralQuery {
	query := &repository.DeferralQuery{
		Status: strings.ToLower(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search_term")),
	}
	if cat := strings.ToUpper(c.Query("category")); models.IsValidCategory(cat) {
		query.Category = cat
	}
	return query
}

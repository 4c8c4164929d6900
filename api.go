package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/middlewares"
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/gin-gonic/gin"
)

// writeModelError translates the typed model errors into HTTP statuses.
// Conflict-style failures carry their structured detail in the body so
// clients can render the shortfall or cycle path.
func writeModelError(c *gin.Context, err error) {
	var notFound *models.NotFoundError
	var validation *models.ValidationError
	var movement *models.InvalidMovementError
	var transition *models.InvalidTransitionError
	var state *models.StateConflictError
	var cycle *models.CycleDetectedError
	var availability *models.AvailabilityConflictError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validation), errors.As(err, &movement):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &cycle):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "path": cycle.Path})
	case errors.As(err, &availability):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "shortfalls": availability.Lines})
	case errors.As(err, &transition), errors.As(err, &state):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// parseWindowTime accepts RFC3339 timestamps and bare dates.
func parseWindowTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func registerRoutes(r *gin.Engine) {
	r.POST("/login", loginHandler)

	v1 := r.Group("/v1", middlewares.RequireAuth())

	v1.POST("/users", createUserHandler)
	v1.POST("/users/password", changePasswordHandler)

	v1.GET("/items", listItemsHandler)
	v1.GET("/items/:id", getItemHandler)
	v1.POST("/items", createItemHandler)
	v1.PUT("/items/:id", updateItemHandler)
	v1.DELETE("/items/:id", deleteItemHandler)
	v1.PATCH("/items/:id/active", toggleItemActiveHandler)

	v1.GET("/items/:id/components", listComponentsHandler)
	v1.POST("/items/:id/components", addComponentHandler)
	v1.DELETE("/items/:id/components/:childId", removeComponentHandler)
	v1.GET("/items/:id/bom/validate", validateBOMHandler)

	v1.GET("/items/:id/availability", checkItemAvailabilityHandler)
	v1.POST("/availability/check", checkMultipleAvailabilityHandler)

	v1.GET("/items/:id/stock", currentStockHandler)
	v1.GET("/items/:id/movements", listStockMovementsHandler)
	v1.POST("/stock/adjustments", recordAdjustmentHandler)

	v1.GET("/orders", listOrdersHandler)
	v1.GET("/orders/:id", getOrderHandler)
	v1.POST("/orders", createOrderHandler)
	v1.PUT("/orders/:id", updateOrderHandler)
	v1.DELETE("/orders/:id", deleteOrderHandler)
	v1.POST("/orders/:id/transition", transitionOrderHandler)
	v1.POST("/orders/transitions", bulkTransitionHandler)
	v1.GET("/orders/:id/conflicts", detectConflictsHandler)

	v1.GET("/customers", listCustomersHandler)
	v1.GET("/customers/:id", getCustomerHandler)
	v1.POST("/customers", createCustomerHandler)
	v1.PUT("/customers/:id", updateCustomerHandler)
	v1.DELETE("/customers/:id", deleteCustomerHandler)
	v1.PATCH("/customers/:id/active", toggleCustomerActiveHandler)

	v1.GET("/salespersons", listSalesPersonsHandler)
	v1.GET("/salespersons/:id", getSalesPersonHandler)
	v1.POST("/salespersons", createSalesPersonHandler)
	v1.PUT("/salespersons/:id", updateSalesPersonHandler)
	v1.DELETE("/salespersons/:id", deleteSalesPersonHandler)
	v1.PATCH("/salespersons/:id/active", toggleSalesPersonActiveHandler)
}

/* auth */

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	info, err := models.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func createUserHandler(c *gin.Context) {
	isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context())
	if !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	if input.BusinessId == "" {
		input.BusinessId, _ = utils.GetBusinessIdFromContext(c.Request.Context())
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func changePasswordHandler(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}
	username, _ := utils.GetUsernameFromContext(c.Request.Context())
	user, err := models.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := utils.ComparePassword(user.Password, req.OldPassword); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}
	user.Password = req.NewPassword
	if _, err := user.ChangeUserPassword(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}

/* items */

func listItemsHandler(c *gin.Context) {
	// view=all serves the redis-cached lightweight projection.
	if c.Query("view") == "all" {
		items, err := models.ListAllItem(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
		return
	}
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	items, err := models.GetItems(c.Request.Context(), name)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func getItemHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	item, err := models.GetItem(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func createItemHandler(c *gin.Context) {
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	item, err := models.CreateItem(c.Request.Context(), &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func updateItemHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	item, err := models.UpdateItem(c.Request.Context(), id, &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func deleteItemHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	item, err := models.DeleteItem(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func toggleItemActiveHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	item, err := models.ToggleActiveItem(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

/* component graph */

func listComponentsHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	components, err := models.GetComponents(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

func addComponentHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var input models.NewItemComponent
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	input.ParentItemId = id
	component, err := models.AddComponent(c.Request.Context(), &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, component)
}

func removeComponentHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	childId, ok := intParam(c, "childId")
	if !ok {
		return
	}
	component, err := models.RemoveComponent(c.Request.Context(), id, childId)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}

func validateBOMHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	report, err := models.ValidateBOMStructure(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

/* availability */

func checkItemAvailabilityHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	winStart, err := parseWindowTime(c.Query("window_start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_start must be a date or RFC3339 timestamp"})
		return
	}
	winEnd, err := parseWindowTime(c.Query("window_end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_end must be a date or RFC3339 timestamp"})
		return
	}
	var excludeOrderId *int
	if v := c.Query("exclude_order_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "exclude_order_id must be a positive integer"})
			return
		}
		excludeOrderId = &n
	}
	result, err := models.CheckItemAvailability(c.Request.Context(), id, winStart, winEnd, excludeOrderId)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func checkMultipleAvailabilityHandler(c *gin.Context) {
	var req struct {
		WindowStart    string                       `json:"window_start" binding:"required"`
		WindowEnd      string                       `json:"window_end" binding:"required"`
		ExcludeOrderId *int                         `json:"exclude_order_id"`
		Lines          []models.AvailabilityRequest `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	winStart, err := parseWindowTime(req.WindowStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_start must be a date or RFC3339 timestamp"})
		return
	}
	winEnd, err := parseWindowTime(req.WindowEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_end must be a date or RFC3339 timestamp"})
		return
	}
	result, err := models.CheckMultipleItemsAvailability(c.Request.Context(), req.Lines, winStart, winEnd, req.ExcludeOrderId)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

/* stock ledger */

func currentStockHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	snapshot, err := models.CurrentStock(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func listStockMovementsHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var orderId *int
	if v := c.Query("order_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id must be a positive integer"})
			return
		}
		orderId = &n
	}
	movements, err := models.GetStockMovements(c.Request.Context(), id, orderId)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func recordAdjustmentHandler(c *gin.Context) {
	var input models.NewStockAdjustment
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	movement, err := models.RecordManualAdjustment(c.Request.Context(), &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

/* orders */

func listOrdersHandler(c *gin.Context) {
	var status *models.OrderStatus
	if v := c.Query("status"); v != "" {
		parsed, err := models.ParseOrderStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
			return
		}
		status = &parsed
	}
	var customerId *int
	if v := c.Query("customer_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id must be a positive integer"})
			return
		}
		customerId = &n
	}
	var windowStart, windowEnd *time.Time
	if v := c.Query("window_start"); v != "" {
		t, err := parseWindowTime(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_start must be a date or RFC3339 timestamp"})
			return
		}
		windowStart = &t
	}
	if v := c.Query("window_end"); v != "" {
		t, err := parseWindowTime(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_end must be a date or RFC3339 timestamp"})
			return
		}
		windowEnd = &t
	}
	if (windowStart == nil) != (windowEnd == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_start and window_end must be provided together"})
		return
	}
	orders, err := models.GetOrders(c.Request.Context(), status, customerId, windowStart, windowEnd)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func getOrderHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	order, err := models.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func createOrderHandler(c *gin.Context) {
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	order, err := models.CreateOrder(c.Request.Context(), &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func updateOrderHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	order, err := models.UpdateOrder(c.Request.Context(), id, &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func deleteOrderHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	order, err := models.DeleteOrder(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// reservationRedisGate takes the optional best-effort redis lock before a
// transition. Correctness does not depend on it: transitions serialize on
// the MySQL advisory lock inside the transaction.
func reservationRedisGate(c *gin.Context, funcName string) bool {
	if !config.UseReservationRedisLock() {
		return true
	}
	businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())
	if err := utils.BusinessLock(c.Request.Context(), businessId, "reservation", "api.go", funcName); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func transitionOrderHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
		return
	}
	if !reservationRedisGate(c, "transitionOrderHandler") {
		return
	}
	result, err := models.TransitionOrder(c.Request.Context(), id, status, req.Notes)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func bulkTransitionHandler(c *gin.Context) {
	var req struct {
		OrderIds []int  `json:"order_ids" binding:"required"`
		Status   string `json:"status" binding:"required"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_ids and status are required"})
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
		return
	}
	if !reservationRedisGate(c, "bulkTransitionHandler") {
		return
	}
	outcomes, err := models.BulkTransitionOrders(c.Request.Context(), req.OrderIds, status, req.Notes)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomes)
}

func detectConflictsHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	shortfalls, err := models.DetectAvailabilityConflicts(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shortfalls": shortfalls})
}

/* customers */

func listCustomersHandler(c *gin.Context) {
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	customers, err := models.GetCustomers(c.Request.Context(), name)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func getCustomerHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func createCustomerHandler(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func updateCustomerHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func deleteCustomerHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	customer, err := models.DeleteCustomer(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func toggleCustomerActiveHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	customer, err := models.ToggleActiveCustomer(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

/* sales persons */

func listSalesPersonsHandler(c *gin.Context) {
	if c.Query("view") == "all" {
		salesPersons, err := models.ListAllSalesPerson(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, salesPersons)
		return
	}
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	salesPersons, err := models.GetSalesPersons(c.Request.Context(), name)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesPersons)
}

func getSalesPersonHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	salesPerson, err := models.GetSalesPerson(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesPerson)
}

func createSalesPersonHandler(c *gin.Context) {
	var input models.NewSalesPerson
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	salesPerson, err := models.CreateSalesPerson(c.Request.Context(), &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusCreated, salesPerson)
}

func updateSalesPersonHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var input models.NewSalesPerson
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	salesPerson, err := models.UpdateSalesPerson(c.Request.Context(), id, &input)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesPerson)
}

func deleteSalesPersonHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	salesPerson, err := models.DeleteSalesPerson(c.Request.Context(), id)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesPerson)
}

func toggleSalesPersonActiveHandler(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}
	salesPerson, err := models.ToggleActiveSalesPerson(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		writeModelError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesPerson)
}

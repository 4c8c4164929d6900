package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

// Regression: two orders competing for the same units in overlapping
// windows. The second reservation must fail with the exact shortfall,
// and succeed once the first order releases its hold.
func TestReservationConflictAndRelease(t *testing.T) {
	ctx := setupIntegration(t)

	item, err := models.CreateItem(ctx, &models.NewItem{
		Name:           "Folding Chair",
		Sku:            "CHAIR-001",
		Kind:           models.ItemKindAtomic,
		QuantityOnHand: intPtr(10),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Acme Events"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	orderA, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerId:    customer.ID,
		StartDate:     datePtr(2026, 9, 1),
		ReturnDueDate: datePtr(2026, 9, 5),
		Lines: []*models.NewOrderLine{
			{ItemId: item.ID, Quantity: 8},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder(A): %v", err)
	}
	if orderA.CurrentStatus != models.OrderStatusDraft {
		t.Fatalf("new order status = %s, want Draft", orderA.CurrentStatus)
	}

	resultA, err := models.ReserveOrder(ctx, orderA.ID, "")
	if err != nil {
		t.Fatalf("ReserveOrder(A): %v", err)
	}
	if len(resultA.Movements) != 1 || resultA.Movements[0].Delta != -8 || resultA.Movements[0].Reason != models.MovementReasonReserve {
		t.Fatalf("reserve should emit one -8 reserve movement, got %+v", resultA.Movements)
	}

	// Overlapping window: 2 of 10 remain, so 5 is short by 3.
	orderB, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerId:    customer.ID,
		StartDate:     datePtr(2026, 9, 3),
		ReturnDueDate: datePtr(2026, 9, 7),
		Lines: []*models.NewOrderLine{
			{ItemId: item.ID, Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder(B): %v", err)
	}

	_, err = models.ReserveOrder(ctx, orderB.ID, "")
	var conflict *models.AvailabilityConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("ReserveOrder(B) error = %v, want AvailabilityConflictError", err)
	}
	if len(conflict.Lines) != 1 {
		t.Fatalf("expected one shortfall line, got %d", len(conflict.Lines))
	}
	short := conflict.Lines[0]
	if short.Available != 2 || short.Shortfall != 3 {
		t.Fatalf("shortfall = %+v, want available 2 shortfall 3", short)
	}
	if len(short.Conflicts) != 1 || short.Conflicts[0].OrderId != orderA.ID {
		t.Fatalf("conflict should name order A, got %+v", short.Conflicts)
	}

	// Availability calculator agrees with the failed reservation.
	avail, err := models.CheckItemAvailability(ctx, item.ID, *datePtr(2026, 9, 3), *datePtr(2026, 9, 7), nil)
	if err != nil {
		t.Fatalf("CheckItemAvailability: %v", err)
	}
	if avail.Available != 2 || avail.ReservedQuantity != 8 {
		t.Fatalf("availability = %+v, want available 2 reserved 8", avail)
	}

	// A disjoint window sees the full fleet.
	later, err := models.CheckItemAvailability(ctx, item.ID, *datePtr(2026, 9, 10), *datePtr(2026, 9, 12), nil)
	if err != nil {
		t.Fatalf("CheckItemAvailability(disjoint): %v", err)
	}
	if later.Available != 10 {
		t.Fatalf("disjoint window available = %d, want 10", later.Available)
	}

	// Cancelling A releases the hold.
	resultCancel, err := models.CancelOrder(ctx, orderA.ID, "")
	if err != nil {
		t.Fatalf("CancelOrder(A): %v", err)
	}
	if len(resultCancel.Movements) != 1 || resultCancel.Movements[0].Delta != 8 || resultCancel.Movements[0].Reason != models.MovementReasonRelease {
		t.Fatalf("cancel should emit one +8 release movement, got %+v", resultCancel.Movements)
	}

	resultB, err := models.ReserveOrder(ctx, orderB.ID, "")
	if err != nil {
		t.Fatalf("ReserveOrder(B) after release: %v", err)
	}
	if resultB.NewStatus != models.OrderStatusReserved {
		t.Fatalf("order B status = %s, want Reserved", resultB.NewStatus)
	}

	// Walk B through the rest of the lifecycle.
	resultCheckout, err := models.CheckoutOrder(ctx, orderB.ID, "")
	if err != nil {
		t.Fatalf("CheckoutOrder(B): %v", err)
	}
	if len(resultCheckout.Movements) != 1 || resultCheckout.Movements[0].Reason != models.MovementReasonCheckout || resultCheckout.Movements[0].Delta != -5 {
		t.Fatalf("checkout should emit one -5 checkout movement, got %+v", resultCheckout.Movements)
	}
	resultReturn, err := models.ReturnOrder(ctx, orderB.ID, "")
	if err != nil {
		t.Fatalf("ReturnOrder(B): %v", err)
	}
	if resultReturn.NewStatus != models.OrderStatusReturned {
		t.Fatalf("order B status = %s, want Returned", resultReturn.NewStatus)
	}
	// Returned is terminal.
	if _, err := models.CancelOrder(ctx, orderB.ID, ""); err == nil {
		t.Fatal("cancelling a returned order must be rejected")
	}

	// The ledger tells the whole story but never drives availability:
	// declared on-hand stays 10 throughout.
	snapshot, err := models.CurrentStock(ctx, item.ID)
	if err != nil {
		t.Fatalf("CurrentStock: %v", err)
	}
	if snapshot.DeclaredOnHand != 10 {
		t.Fatalf("declared on-hand = %d, want 10", snapshot.DeclaredOnHand)
	}
	movements, err := models.GetStockMovements(ctx, item.ID, nil)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements) != 5 {
		t.Fatalf("expected 5 ledger entries (reserve, release, reserve, checkout, return), got %d", len(movements))
	}
}

// Composite availability derives from component stock and subtracts
// overlapping component demand.
func TestCompositeAvailabilityThroughComponents(t *testing.T) {
	ctx := setupIntegration(t)

	chairs, err := models.CreateItem(ctx, &models.NewItem{
		Name: "Chair", Sku: "CHAIR-C01", Kind: models.ItemKindAtomic, QuantityOnHand: intPtr(10),
	})
	if err != nil {
		t.Fatalf("CreateItem(chairs): %v", err)
	}
	table, err := models.CreateItem(ctx, &models.NewItem{
		Name: "Table", Sku: "TABLE-C01", Kind: models.ItemKindAtomic, QuantityOnHand: intPtr(4),
	})
	if err != nil {
		t.Fatalf("CreateItem(table): %v", err)
	}
	bundle, err := models.CreateItem(ctx, &models.NewItem{
		Name: "Dining Set", Sku: "SET-C01", Kind: models.ItemKindComposite,
	})
	if err != nil {
		t.Fatalf("CreateItem(bundle): %v", err)
	}

	if _, err := models.AddComponent(ctx, &models.NewItemComponent{
		ParentItemId: bundle.ID, ChildItemId: chairs.ID, RequiredQuantity: 2,
	}); err != nil {
		t.Fatalf("AddComponent(chairs): %v", err)
	}
	if _, err := models.AddComponent(ctx, &models.NewItemComponent{
		ParentItemId: bundle.ID, ChildItemId: table.ID, RequiredQuantity: 1,
	}); err != nil {
		t.Fatalf("AddComponent(table): %v", err)
	}

	// Closing a loop must be refused.
	_, err = models.AddComponent(ctx, &models.NewItemComponent{
		ParentItemId: bundle.ID, ChildItemId: bundle.ID, RequiredQuantity: 1,
	})
	if err == nil {
		t.Fatal("self-referencing component edge must be rejected")
	}

	// min(floor(10/2), floor(4/1)) = 4
	avail, err := models.CheckItemAvailability(ctx, bundle.ID, *datePtr(2026, 10, 1), *datePtr(2026, 10, 3), nil)
	if err != nil {
		t.Fatalf("CheckItemAvailability(bundle): %v", err)
	}
	if avail.Available != 4 {
		t.Fatalf("bundle available = %d, want 4", avail.Available)
	}

	// Reserve 6 chairs in an overlapping order: floor(4/2) = 2 sets left.
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Chair Eater"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	order, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerId:    customer.ID,
		StartDate:     datePtr(2026, 10, 1),
		ReturnDueDate: datePtr(2026, 10, 5),
		Lines: []*models.NewOrderLine{
			{ItemId: chairs.ID, Quantity: 6},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := models.ReserveOrder(ctx, order.ID, ""); err != nil {
		t.Fatalf("ReserveOrder: %v", err)
	}

	avail, err = models.CheckItemAvailability(ctx, bundle.ID, *datePtr(2026, 10, 2), *datePtr(2026, 10, 4), nil)
	if err != nil {
		t.Fatalf("CheckItemAvailability(bundle after reserve): %v", err)
	}
	if avail.Available != 2 {
		t.Fatalf("bundle available = %d, want 2 after chair demand", avail.Available)
	}
}

// Manual adjustments mutate the declared count and append to the
// ledger; lifecycle reasons are refused on this path.
func TestManualAdjustmentMutatesOnHand(t *testing.T) {
	ctx := setupIntegration(t)

	item, err := models.CreateItem(ctx, &models.NewItem{
		Name: "Speaker", Sku: "SPK-001", Kind: models.ItemKindAtomic, QuantityOnHand: intPtr(5),
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if _, err := models.RecordManualAdjustment(ctx, &models.NewStockAdjustment{
		ItemId: item.ID, Delta: -2, Reason: models.MovementReasonLoss, Notes: "dropped off a truck",
	}); err != nil {
		t.Fatalf("RecordManualAdjustment(loss): %v", err)
	}

	snapshot, err := models.CurrentStock(ctx, item.ID)
	if err != nil {
		t.Fatalf("CurrentStock: %v", err)
	}
	if snapshot.DeclaredOnHand != 3 || snapshot.LedgerSum != -2 {
		t.Fatalf("snapshot = %+v, want on-hand 3 ledger -2", snapshot)
	}

	// Lifecycle reasons never go through the manual path.
	_, err = models.RecordManualAdjustment(ctx, &models.NewStockAdjustment{
		ItemId: item.ID, Delta: -1, Reason: models.MovementReasonCheckout,
	})
	if err == nil {
		t.Fatal("checkout reason must be rejected on the manual path")
	}

	// Going below zero is refused.
	_, err = models.RecordManualAdjustment(ctx, &models.NewStockAdjustment{
		ItemId: item.ID, Delta: -4, Reason: models.MovementReasonLoss,
	})
	if err == nil {
		t.Fatal("adjustment below zero on-hand must be rejected")
	}
}

// A basket check judges every line against the shared window in one
// call, and reading availability never consumes it.
func TestMultiItemAvailabilityBasket(t *testing.T) {
	ctx := setupIntegration(t)

	projector, err := models.CreateItem(ctx, &models.NewItem{
		Name: "Projector", Sku: "PRJ-M01", Kind: models.ItemKindAtomic, QuantityOnHand: intPtr(10),
	})
	if err != nil {
		t.Fatalf("CreateItem(projector): %v", err)
	}
	screen, err := models.CreateItem(ctx, &models.NewItem{
		Name: "Screen", Sku: "SCR-M01", Kind: models.ItemKindAtomic, QuantityOnHand: intPtr(2),
	})
	if err != nil {
		t.Fatalf("CreateItem(screen): %v", err)
	}

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Conference Org"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	holding, err := models.CreateOrder(ctx, &models.NewOrder{
		CustomerId:    customer.ID,
		StartDate:     datePtr(2026, 11, 1),
		ReturnDueDate: datePtr(2026, 11, 5),
		Lines: []*models.NewOrderLine{
			{ItemId: projector.ID, Quantity: 8},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := models.ReserveOrder(ctx, holding.ID, ""); err != nil {
		t.Fatalf("ReserveOrder: %v", err)
	}

	requests := []models.AvailabilityRequest{
		{ItemId: projector.ID, Quantity: 5},
		{ItemId: screen.ID, Quantity: 2},
	}
	winStart := *datePtr(2026, 11, 2)
	winEnd := *datePtr(2026, 11, 4)

	result, err := models.CheckMultipleItemsAvailability(ctx, requests, winStart, winEnd, nil)
	if err != nil {
		t.Fatalf("CheckMultipleItemsAvailability: %v", err)
	}
	if result.AllAvailable {
		t.Fatal("basket with a short line must not report AllAvailable")
	}
	if result.TotalShortfall != 3 {
		t.Fatalf("TotalShortfall = %d, want 3", result.TotalShortfall)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(result.Lines))
	}
	prjLine := result.Lines[0]
	if prjLine.ItemId != projector.ID || prjLine.Satisfiable || prjLine.Available != 2 || prjLine.Shortfall != 3 {
		t.Fatalf("projector line = %+v, want unsatisfiable available 2 shortfall 3", prjLine)
	}
	scrLine := result.Lines[1]
	if scrLine.ItemId != screen.ID || !scrLine.Satisfiable || scrLine.Available != 2 || scrLine.Shortfall != 0 {
		t.Fatalf("screen line = %+v, want satisfiable available 2", scrLine)
	}

	// The check is a pure read: asking again gives the same answer.
	again, err := models.CheckMultipleItemsAvailability(ctx, requests, winStart, winEnd, nil)
	if err != nil {
		t.Fatalf("CheckMultipleItemsAvailability(again): %v", err)
	}
	if again.AllAvailable != result.AllAvailable || again.TotalShortfall != result.TotalShortfall {
		t.Fatalf("repeated check diverged: first %+v, second %+v", result, again)
	}
	for i := range result.Lines {
		if again.Lines[i] != result.Lines[i] {
			t.Fatalf("repeated check line %d diverged: first %+v, second %+v", i, result.Lines[i], again.Lines[i])
		}
	}

	// Excluding the holding order restores its demand to the basket.
	excluded, err := models.CheckMultipleItemsAvailability(ctx, requests, winStart, winEnd, &holding.ID)
	if err != nil {
		t.Fatalf("CheckMultipleItemsAvailability(exclude): %v", err)
	}
	if !excluded.AllAvailable || excluded.TotalShortfall != 0 {
		t.Fatalf("excluded check = %+v, want fully available", excluded)
	}
	if excluded.Lines[0].Available != 10 {
		t.Fatalf("projector available with own order excluded = %d, want 10", excluded.Lines[0].Available)
	}

	// Degenerate baskets are refused up front.
	if _, err := models.CheckMultipleItemsAvailability(ctx, nil, winStart, winEnd, nil); err == nil {
		t.Fatal("empty basket must be rejected")
	}
	if _, err := models.CheckMultipleItemsAvailability(ctx, []models.AvailabilityRequest{
		{ItemId: projector.ID, Quantity: 0},
	}, winStart, winEnd, nil); err == nil {
		t.Fatal("zero-quantity line must be rejected")
	}
}

// Login issues a token for active users only.
func TestLoginRespectsActiveFlag(t *testing.T) {
	ctx := setupIntegration(t)
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	if _, err := models.CreateUser(ctx, &models.NewUser{
		BusinessId: businessId,
		Username:   "inactive.clerk",
		Name:       "Inactive Clerk",
		Password:   "secret123",
		IsActive:   utils.NewFalse(),
		Role:       models.UserRoleClerk,
	}); err != nil {
		t.Fatalf("CreateUser(inactive): %v", err)
	}
	if _, err := models.Login(ctx, "inactive.clerk", "secret123"); err == nil {
		t.Fatal("disabled user must not be able to log in")
	}

	if _, err := models.CreateUser(ctx, &models.NewUser{
		BusinessId: businessId,
		Username:   "active.clerk",
		Name:       "Active Clerk",
		Password:   "secret123",
		IsActive:   utils.NewTrue(),
		Role:       models.UserRoleClerk,
	}); err != nil {
		t.Fatalf("CreateUser(active): %v", err)
	}
	info, err := models.Login(ctx, "active.clerk", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if info.Token == "" || info.BusinessId != businessId {
		t.Fatalf("login info = %+v, want token and business id", info)
	}
	if _, err := models.Login(ctx, "active.clerk", "wrong"); err == nil {
		t.Fatal("wrong password must be rejected")
	}
}

/* shared integration setup */

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "rentals_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	businessId := fmt.Sprintf("biz-%d", time.Now().UnixNano())
	ctx = utils.SetBusinessIdInContext(ctx, businessId)
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")
	return ctx
}

func intPtr(n int) *int { return &n }

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("rentals-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("rentals-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=rentals_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}

package test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gearshop/storefront/core/cart"
	"github.com/google/go-cmp/cmp"
)

type cartTest struct {
	*TestEnv
}

func (rt *cartTest) showCartOK(t *testing.T) cart.View {
	t.Helper()

	w, err := rt.Client().Get(rt.URL + "/cart")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't show cart: status code %s", w.Status)
	}

	var view cart.View
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("cannot unmarshal cart view: %v", err)
	}
	return view
}

func (rt *cartTest) addItemOK(t *testing.T, productID string, quantity int) cart.Mutation {
	t.Helper()

	payload := map[string]any{"productId": productID, "quantity": quantity}
	return rt.mutationOK(t, http.MethodPut, "/cart/items", payload)
}

func (rt *cartTest) updateItemOK(t *testing.T, productID string, quantity int) cart.Mutation {
	t.Helper()

	payload := map[string]any{"quantity": quantity}
	return rt.mutationOK(t, http.MethodPut, "/cart/items/"+productID, payload)
}

func (rt *cartTest) decrementItemOK(t *testing.T, productID string, quantity int) cart.Mutation {
	t.Helper()

	payload := map[string]any{"quantity": quantity}
	return rt.mutationOK(t, http.MethodPut, "/cart/items/"+productID+"/decrement", payload)
}

func (rt *cartTest) removeItemOK(t *testing.T, productID string) cart.Mutation {
	t.Helper()

	return rt.mutationOK(t, http.MethodDelete, "/cart/items/"+productID, nil)
}

func (rt *cartTest) clearCartOK(t *testing.T) cart.Mutation {
	t.Helper()

	return rt.mutationOK(t, http.MethodDelete, "/cart", nil)
}

func (rt *cartTest) mutationOK(t *testing.T, method string, path string, payload any) cart.Mutation {
	t.Helper()

	w, err := request(rt.TestEnv, method, path, payload)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("%s %s: status code %s", method, path, w.Status)
	}

	var m cart.Mutation
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("cannot unmarshal mutation response: %v", err)
	}
	if m.Status != "success" {
		t.Fatalf("%s %s: mutation status %q", method, path, m.Status)
	}
	return m
}

func (rt *cartTest) mutationFails(t *testing.T, method string, path string, payload any, code int) cart.Mutation {
	t.Helper()

	w, err := request(rt.TestEnv, method, path, payload)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != code {
		t.Fatalf("%s %s: expected status %d, got %s", method, path, code, w.Status)
	}

	var m cart.Mutation
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("cannot unmarshal mutation response: %v", err)
	}
	return m
}

// counterConsistent checks that every cart's cached counter equals the
// sum of its item quantities.
func (rt *cartTest) counterConsistent(t *testing.T) {
	t.Helper()

	const q = `
	SELECT c.cart_id, c.items_count, COALESCE(SUM(ci.quantity), 0) AS actual
	FROM carts c
	LEFT JOIN cart_items ci ON ci.cart_id = c.cart_id
	GROUP BY c.cart_id, c.items_count`

	var rows []struct {
		CartID     string `db:"cart_id"`
		ItemsCount int    `db:"items_count"`
		Actual     int    `db:"actual"`
	}
	if err := rt.DB.Select(&rows, q); err != nil {
		t.Fatalf("checking counters: %v", err)
	}

	for _, row := range rows {
		if row.ItemsCount != row.Actual {
			t.Fatalf("cart[%s]: counter %d does not match item sum %d", row.CartID, row.ItemsCount, row.Actual)
		}
	}
}

func (rt *cartTest) guestCartCount(t *testing.T) int {
	t.Helper()

	var n int
	if err := rt.DB.Get(&n, `SELECT COUNT(*) FROM carts WHERE user_id IS NULL`); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCartGuestMerge(t *testing.T) {
	env, err := NewTestEnv(t, "cart_guest_merge_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}
	pt := &productTest{env}

	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	prdA := pt.createProductOK(t, 1000)
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	// Fresh guest, no session token yet.
	view := rt.showCartOK(t)
	if view.TotalItems != 0 || len(view.Items) != 0 {
		t.Fatalf("fresh guest cart not empty: %+v", view)
	}

	m := rt.addItemOK(t, prdA.ID, 2)
	if m.CartCount != 2 || m.CartTotal != 2000 {
		t.Fatalf("after add: count %d total %d", m.CartCount, m.CartTotal)
	}

	if n := rt.guestCartCount(t); n != 1 {
		t.Fatalf("expected a single guest cart, found %d", n)
	}

	// A brand new account starts with an empty persistent cart; the
	// guest cart must fold into it at signup.
	if _, err := Signup(env, "Merge User", "merge@test.com", "mergepassword"); err != nil {
		t.Fatal(err)
	}

	view = rt.showCartOK(t)
	if view.TotalItems != 2 || view.TotalPrice != 2000 {
		t.Fatalf("after merge: items %d total %d", view.TotalItems, view.TotalPrice)
	}

	wantItems := []cart.ItemView{{
		ProductID: prdA.ID,
		Title:     prdA.Title,
		Brand:     prdA.Brand,
		Price:     prdA.Price,
		ImageURL:  prdA.ImageURL,
		Quantity:  2,
	}}
	if diff := cmp.Diff(wantItems, view.Items); diff != "" {
		t.Fatalf("merged cart items mismatch (-want +got):\n%s", diff)
	}

	if n := rt.guestCartCount(t); n != 0 {
		t.Fatalf("guest cart should be destroyed after merge, found %d", n)
	}

	// Resolving again must keep returning the same user cart.
	again := rt.showCartOK(t)
	if again.ID != view.ID || again.TotalItems != 2 {
		t.Fatalf("user cart not stable across requests: %+v", again)
	}

	rt.counterConsistent(t)
}

func TestCartMergeAdditive(t *testing.T) {
	env, err := NewTestEnv(t, "cart_merge_additive_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}
	pt := &productTest{env}

	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	prdA := pt.createProductOK(t, 1000)
	prdB := pt.createProductOK(t, 500)
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	// User cart holds {A:2}.
	const email, pass = "additive@test.com", "additivepassword"
	if _, err := Signup(env, "Additive User", email, pass); err != nil {
		t.Fatal(err)
	}
	rt.addItemOK(t, prdA.ID, 2)
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	// Guest cart holds {A:3, B:1}.
	rt.addItemOK(t, prdA.ID, 3)
	rt.addItemOK(t, prdB.ID, 1)

	if err := Login(env, email, pass); err != nil {
		t.Fatal(err)
	}

	view := rt.showCartOK(t)
	if view.TotalItems != 6 {
		t.Fatalf("after additive merge: total items %d, want 6", view.TotalItems)
	}

	quantities := map[string]int{}
	for _, it := range view.Items {
		quantities[it.ProductID] = it.Quantity
	}
	if quantities[prdA.ID] != 5 || quantities[prdB.ID] != 1 {
		t.Fatalf("after additive merge: quantities %v", quantities)
	}

	if n := rt.guestCartCount(t); n != 0 {
		t.Fatalf("guest cart should be destroyed after merge, found %d", n)
	}

	rt.counterConsistent(t)
}

func TestCartMergeEmptyGuest(t *testing.T) {
	env, err := NewTestEnv(t, "cart_merge_empty_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}

	// Resolving as guest mints an empty cart and a session token.
	rt.showCartOK(t)
	if n := rt.guestCartCount(t); n != 1 {
		t.Fatalf("expected a single guest cart, found %d", n)
	}

	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	view := rt.showCartOK(t)
	if view.TotalItems != 0 {
		t.Fatalf("user cart should be empty, has %d items", view.TotalItems)
	}

	var userCarts int
	if err := env.DB.Get(&userCarts, `SELECT COUNT(*) FROM carts WHERE user_id IS NOT NULL`); err != nil {
		t.Fatal(err)
	}
	if userCarts != 1 {
		t.Fatalf("empty merge must not duplicate the user cart, found %d", userCarts)
	}
}

func TestCartStaleToken(t *testing.T) {
	env, err := NewTestEnv(t, "cart_stale_token_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}
	pt := &productTest{env}

	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	prd := pt.createProductOK(t, 750)
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	rt.addItemOK(t, prd.ID, 1)
	stale := rt.showCartOK(t)

	// Simulate the cart being claimed by another identity while the
	// session still holds its token.
	if _, err := env.DB.Exec(`UPDATE carts SET user_id = $1 WHERE cart_id = $2`, env.UserID, stale.ID); err != nil {
		t.Fatal(err)
	}

	view := rt.showCartOK(t)
	if view.ID == stale.ID {
		t.Fatal("stale token resolved to a cart owned by another user")
	}
	if view.TotalItems != 0 {
		t.Fatalf("replacement guest cart not empty: %d items", view.TotalItems)
	}

	rt.counterConsistent(t)
}

func TestCartItemLifecycle(t *testing.T) {
	env, err := NewTestEnv(t, "cart_item_lifecycle_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}
	pt := &productTest{env}

	if err := Login(env, env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	prdA := pt.createProductOK(t, 1000)
	prdB := pt.createProductOK(t, 250)
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	// Repeated adds sum into a single item.
	rt.addItemOK(t, prdA.ID, 2)
	m := rt.addItemOK(t, prdA.ID, 3)
	if m.CartCount != 5 || m.CartTotal != 5000 {
		t.Fatalf("after summed adds: count %d total %d", m.CartCount, m.CartTotal)
	}

	var itemRows int
	if err := env.DB.Get(&itemRows, `SELECT COUNT(*) FROM cart_items`); err != nil {
		t.Fatal(err)
	}
	if itemRows != 1 {
		t.Fatalf("expected one item row for repeated adds, found %d", itemRows)
	}
	rt.counterConsistent(t)

	// Setting a quantity replaces it; setting zero removes the item.
	m = rt.updateItemOK(t, prdA.ID, 3)
	if m.CartCount != 3 {
		t.Fatalf("after update to 3: count %d", m.CartCount)
	}
	m = rt.updateItemOK(t, prdA.ID, 0)
	if m.CartCount != 0 {
		t.Fatalf("after update to 0: count %d", m.CartCount)
	}
	rt.counterConsistent(t)

	// Updating a missing item reports failure, it never creates one.
	em := rt.mutationFails(t, http.MethodPut, "/cart/items/"+prdA.ID, map[string]any{"quantity": 2}, http.StatusNotFound)
	if em.Status != "error" {
		t.Fatalf("expected error status, got %q", em.Status)
	}

	// Decrementing the last unit removes the item; a second decrement
	// reports failure.
	rt.addItemOK(t, prdB.ID, 1)
	m = rt.decrementItemOK(t, prdB.ID, 1)
	if m.CartCount != 0 {
		t.Fatalf("after decrementing last unit: count %d", m.CartCount)
	}
	rt.mutationFails(t, http.MethodPut, "/cart/items/"+prdB.ID+"/decrement", map[string]any{"quantity": 1}, http.StatusNotFound)

	// A decrement below the current quantity stays in place.
	rt.addItemOK(t, prdB.ID, 5)
	m = rt.decrementItemOK(t, prdB.ID, 2)
	if m.CartCount != 3 {
		t.Fatalf("after partial decrement: count %d", m.CartCount)
	}
	rt.counterConsistent(t)

	// Removing an absent product is a quiet no-op.
	m = rt.removeItemOK(t, prdA.ID)
	if m.CartCount != 3 {
		t.Fatalf("no-op remove changed the count: %d", m.CartCount)
	}

	// Clearing empties everything.
	rt.addItemOK(t, prdA.ID, 4)
	cm := rt.clearCartOK(t)
	if cm.CartCount != 0 || cm.CartTotal != 0 {
		t.Fatalf("after clear: count %d total %d", cm.CartCount, cm.CartTotal)
	}
	if err := env.DB.Get(&itemRows, `SELECT COUNT(*) FROM cart_items`); err != nil {
		t.Fatal(err)
	}
	if itemRows != 0 {
		t.Fatalf("items remain after clear: %d", itemRows)
	}
	rt.counterConsistent(t)

	// No row below quantity one may ever persist.
	var bad int
	if err := env.DB.Get(&bad, `SELECT COUNT(*) FROM cart_items WHERE quantity <= 0`); err != nil {
		t.Fatal(err)
	}
	if bad != 0 {
		t.Fatalf("found %d item rows with non-positive quantity", bad)
	}
}

func TestCartAddUnknownProduct(t *testing.T) {
	env, err := NewTestEnv(t, "cart_unknown_product_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}

	payload := map[string]any{"productId": "6fa1fdf4-41d1-42c5-9f31-b1a4e49623a9", "quantity": 1}
	em := rt.mutationFails(t, http.MethodPut, "/cart/items", payload, http.StatusNotFound)
	if em.Status != "error" || em.Message != "Product not found" {
		t.Fatalf("unexpected error payload: %+v", em)
	}
}

func TestCartPurge(t *testing.T) {
	env, err := NewTestEnv(t, "cart_purge_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}

	// Two guest carts, one aged past the retention window.
	rt.showCartOK(t)
	env.ResetSession()
	rt.showCartOK(t)

	old := "2000-01-01T00:00:00Z"
	if _, err := env.DB.Exec(`UPDATE carts SET created_at = $1 WHERE cart_id = (SELECT cart_id FROM carts WHERE user_id IS NULL LIMIT 1)`, old); err != nil {
		t.Fatal(err)
	}

	n, err := cart.PurgeStaleGuests(context.Background(), env.DB, 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("purged %d carts, want 1", n)
	}
	if got := rt.guestCartCount(t); got != 1 {
		t.Fatalf("guest carts after purge: %d, want 1", got)
	}
}

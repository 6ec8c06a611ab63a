package services

import (
	"context"
	"testing"
	"time"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntryScalesSnapshot(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	diary.now = func() time.Time { return now }
	owner := newUser(t, db, models.RoleUser)
	p := newProduct(t, catalog, owner, "Bread", 200)

	view, err := diary.CreateEntry(context.Background(), owner, DiaryInput{FoodID: p, Mass: 50})
	require.NoError(t, err)
	assert.Equal(t, 100.0, view.CalcCalories)
	assert.Equal(t, 5.0, view.CalcProteins)
	assert.Equal(t, 2.5, view.CalcFats)
	assert.Equal(t, 10.0, view.CalcCarbs)
	assert.Equal(t, owner.UserID, view.User)
	assert.True(t, now.Equal(view.AddedDate))
	require.NotNil(t, view.Product)
	assert.Equal(t, "Bread", view.Product.Name)
	assert.Nil(t, view.Recipe)
}

func TestEntrySnapshotIgnoresLaterFoodEdits(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	ctx := context.Background()
	owner := newUser(t, db, models.RoleUser)
	p := newProduct(t, catalog, owner, "Bread", 200)

	entry, err := diary.CreateEntry(ctx, owner, DiaryInput{FoodID: p, Mass: 50})
	require.NoError(t, err)

	_, err = catalog.UpdateProduct(ctx, owner, p, ProductPatch{Calories: ptr(300.0)})
	require.NoError(t, err)

	got, err := diary.GetEntry(ctx, owner, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.CalcCalories)

	// a mass change rescales from the food's current profile
	got, err = diary.UpdateEntry(ctx, owner, entry.ID, DiaryPatch{Mass: ptr(100.0)})
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.CalcCalories)
	assert.Equal(t, 100.0, got.Mass)
}

func TestUpdateEntryKeepsSnapshotWithoutMassOrFoodChange(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	ctx := context.Background()
	owner := newUser(t, db, models.RoleUser)
	p := newProduct(t, catalog, owner, "Bread", 200)
	meal, err := NewMealService(db).CreateMeal(ctx, owner, MealInput{Name: "Lunch"})
	require.NoError(t, err)

	entry, err := diary.CreateEntry(ctx, owner, DiaryInput{FoodID: p, Mass: 50})
	require.NoError(t, err)
	_, err = catalog.UpdateProduct(ctx, owner, p, ProductPatch{Calories: ptr(300.0)})
	require.NoError(t, err)

	got, err := diary.UpdateEntry(ctx, owner, entry.ID, DiaryPatch{MealID: &meal.ID, Mass: ptr(50.0)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.CalcCalories)
	require.NotNil(t, got.Meal)
	assert.Equal(t, meal.ID, *got.Meal)
}

func TestUpdateEntrySwitchesFood(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	ctx := context.Background()
	owner := newUser(t, db, models.RoleUser)
	a := newProduct(t, catalog, owner, "A", 200)
	b := newProduct(t, catalog, owner, "B", 100)
	recipe, err := catalog.CreateRecipe(ctx, owner, RecipeInput{
		Name: "Mix", Directions: "Stir.", Mass: 100,
		Components: []ComponentInput{{ProductID: a, Mass: 50}, {ProductID: b, Mass: 50}},
	})
	require.NoError(t, err)

	entry, err := diary.CreateEntry(ctx, owner, DiaryInput{FoodID: a, Mass: 200})
	require.NoError(t, err)
	assert.Equal(t, 400.0, entry.CalcCalories)

	got, err := diary.UpdateEntry(ctx, owner, entry.ID, DiaryPatch{FoodID: &recipe.ID})
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.CalcCalories)
	assert.Nil(t, got.Product)
	require.NotNil(t, got.Recipe)
	assert.Equal(t, "Mix", got.Recipe.Name)
}

func TestCreateEntryRejectsOtherUsersMeal(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	ctx := context.Background()
	u1 := newUser(t, db, models.RoleUser)
	u2 := newUser(t, db, models.RoleAdmin)
	p := newProduct(t, catalog, u1, "Bread", 200)
	meal, err := NewMealService(db).CreateMeal(ctx, u2, MealInput{Name: "Dinner"})
	require.NoError(t, err)

	_, err = diary.CreateEntry(ctx, u1, DiaryInput{MealID: &meal.ID, FoodID: p, Mass: 50})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"cannot use other users' meals"}, verr.Fields["meal"])

	// staff cannot borrow meals either
	_, err = diary.CreateEntry(ctx, u2, DiaryInput{MealID: &meal.ID, FoodID: p, Mass: 50})
	require.NoError(t, err)
	mine, err := NewMealService(db).CreateMeal(ctx, u1, MealInput{Name: "Mine"})
	require.NoError(t, err)
	_, err = diary.CreateEntry(ctx, u2, DiaryInput{MealID: &mine.ID, FoodID: p, Mass: 50})
	require.ErrorAs(t, err, &verr)

	var n int64
	db.Model(&models.DiaryEntry{}).Where("user_id = ?", u1.UserID).Count(&n)
	assert.Zero(t, n)
}

func TestCreateEntryValidation(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	ctx := context.Background()
	owner := newUser(t, db, models.RoleUser)
	p := newProduct(t, catalog, owner, "Bread", 200)

	tests := []struct {
		name  string
		in    DiaryInput
		field string
	}{
		{"zero mass", DiaryInput{FoodID: p, Mass: 0}, "mass"},
		{"too heavy", DiaryInput{FoodID: p, Mass: 10000.5}, "mass"},
		{"no food", DiaryInput{Mass: 10}, "food"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := diary.CreateEntry(ctx, owner, tt.in)
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	_, err := diary.CreateEntry(ctx, owner, DiaryInput{FoodID: p, Mass: 10000})
	assert.NoError(t, err)

	_, err = diary.CreateEntry(ctx, owner, DiaryInput{FoodID: 999, Mass: 10})
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
	_, err = diary.CreateEntry(ctx, owner, DiaryInput{FoodID: p, Mass: 10, MealID: ptr(uint(999))})
	assert.ErrorAs(t, err, &nf)
}

func TestDiaryEntriesAreOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	ctx := context.Background()
	owner := newUser(t, db, models.RoleUser)
	admin := newUser(t, db, models.RoleAdmin)
	p := newProduct(t, catalog, owner, "Bread", 200)
	entry, err := diary.CreateEntry(ctx, owner, DiaryInput{FoodID: p, Mass: 50})
	require.NoError(t, err)

	_, err = diary.GetEntry(ctx, admin, entry.ID)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)

	list, err := diary.ListEntries(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = diary.UpdateEntry(ctx, admin, entry.ID, DiaryPatch{Mass: ptr(1.0)})
	var denied *apperr.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "cannot change other users' diary entries", denied.Reason)
	assert.ErrorAs(t, diary.DeleteEntry(ctx, admin, entry.ID), &denied)

	require.NoError(t, diary.DeleteEntry(ctx, owner, entry.ID))
	list, err = diary.ListEntries(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListEntriesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, nil)
	ctx := context.Background()
	owner := newUser(t, db, models.RoleUser)
	p := newProduct(t, catalog, owner, "Bread", 200)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	older, err := diary.CreateEntry(ctx, owner, DiaryInput{FoodID: p, Mass: 10, AddedDate: &day})
	require.NoError(t, err)
	next := day.Add(24 * time.Hour)
	newer, err := diary.CreateEntry(ctx, owner, DiaryInput{FoodID: p, Mass: 20, AddedDate: &next})
	require.NoError(t, err)

	list, err := diary.ListEntries(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestDiaryEventsReachOwner(t *testing.T) {
	db := newTestDB(t)
	hub := NewRealtimeHub()
	catalog := NewCatalogService(db, nil)
	diary := NewDiaryService(db, NewNotifier(db, hub, nil))
	owner := newUser(t, db, models.RoleUser)
	p := newProduct(t, catalog, owner, "Bread", 200)

	conn := dialHub(t, hub, owner.UserID)
	entry, err := diary.CreateEntry(context.Background(), owner, DiaryInput{FoodID: p, Mass: 50})
	require.NoError(t, err)

	ev := readEvent(t, conn)
	assert.Equal(t, EventDiaryCreated, ev.Kind)
	assert.EqualValues(t, entry.ID, ev.Data.(map[string]any)["id"])
}

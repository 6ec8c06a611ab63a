package routes

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/maskyy/caketruth/controllers"
	"github.com/maskyy/caketruth/middlewares"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/services"
	"github.com/maskyy/caketruth/utils"
)

// Deps are the collaborators the router hands to its controllers.
type Deps struct {
	Tokens    *utils.TokenIssuer
	Auth      *services.AuthService
	Users     *services.UserService
	Catalog   *services.CatalogService
	Taxonomy  *services.TaxonomyService
	Meals     *services.MealService
	Diary     *services.DiaryService
	Analytics *services.AnalyticsService
	Realtime  *services.RealtimeHub
}

func init() {
	// report binding errors under the JSON field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger())

	api := r.Group("/api")
	requireAuth := middlewares.AuthMiddleware(d.Tokens)
	optionalAuth := middlewares.OptionalAuth(d.Tokens)

	authCtl := controllers.NewAuthController(d.Auth)
	auth := api.Group("/auth", optionalAuth)
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
	}

	userCtl := controllers.NewUserController(d.Users)
	users := api.Group("/users", requireAuth)
	{
		users.GET("/:id", userCtl.Get)
		users.PATCH("/:id", userCtl.Update)
	}

	foodCtl := controllers.NewFoodController(d.Catalog)
	crud(api.Group("/products", optionalAuth), foodCtl.ListProducts, foodCtl.CreateProduct, foodCtl.GetProduct, foodCtl.UpdateProduct, foodCtl.DeleteProduct)
	crud(api.Group("/recipes", optionalAuth), foodCtl.ListRecipes, foodCtl.CreateRecipe, foodCtl.GetRecipe, foodCtl.UpdateRecipe, foodCtl.DeleteRecipe)

	for path, res := range map[string]policy.Resource{
		"/product-categories": policy.ProductCategory,
		"/product-brands":     policy.ProductBrand,
		"/recipe-categories":  policy.RecipeCategory,
	} {
		tc := controllers.NewTaxonomyController(d.Taxonomy, res)
		crud(api.Group(path, optionalAuth), tc.List, tc.Create, tc.Get, tc.Update, tc.Delete)
	}

	mealCtl := controllers.NewMealController(d.Meals)
	crud(api.Group("/meals", requireAuth), mealCtl.List, mealCtl.Create, mealCtl.Get, mealCtl.Update, mealCtl.Delete)

	diaryCtl := controllers.NewDiaryController(d.Diary)
	crud(api.Group("/diary", requireAuth), diaryCtl.List, diaryCtl.Create, diaryCtl.Get, diaryCtl.Update, diaryCtl.Delete)

	analyticsCtl := controllers.NewAnalyticsController(d.Analytics)
	api.GET("/diary-summary", requireAuth, analyticsCtl.GetDiarySummary)

	rtCtl := controllers.NewRealtimeController(d.Realtime)
	api.GET("/ws", requireAuth, rtCtl.EventsWS)

	return r
}

func crud(g *gin.RouterGroup, list, create, get, update, del gin.HandlerFunc) {
	g.GET("", list)
	g.POST("", create)
	g.GET("/:id", get)
	g.PATCH("/:id", update)
	g.DELETE("/:id", del)
}

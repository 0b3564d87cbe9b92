// Package storefront serves the public storefront API: a fixed category list
// and a cached, time-bounded proxy of the backend plan list.
package storefront

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Categories is hard-coded; there is no category store.
var Categories = []Category{
	{ID: 1, Name: "Residential", Slug: "residential"},
	{ID: 2, Name: "Commercial", Slug: "commercial"},
	{ID: 3, Name: "Bungalows", Slug: "bungalows"},
	{ID: 4, Name: "Maisonettes", Slug: "maisonettes"},
	{ID: 5, Name: "Apartments", Slug: "apartments"},
	{ID: 6, Name: "Villas", Slug: "villas"},
	{ID: 7, Name: "Industrial", Slug: "industrial"},
	{ID: 8, Name: "Institutional", Slug: "institutional"},
}

func ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, Categories)
}

package main

import (
	"net/http"

	"travleap/src/db"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func unitHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/partners", func(ctx *gin.Context) {
			var body types.CreatePartnerRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			partner := models.Partner{
				Name:         body.Name,
				Slug:         slug.Make(body.Name),
				ContactEmail: body.ContactEmail,
			}
			if err := db.Create(&partner).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": partner})
		}).
		POST("/units", func(ctx *gin.Context) {
			var body types.CreateUnitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			db := db.GetDb()
			var unit models.BookableUnit
			err := db.Transaction(func(tx *gorm.DB) error {
				var partner models.Partner
				if err := tx.Where(&models.Partner{ID: body.PartnerID}).First(&partner).Error; err != nil {
					return err
				}
				unit = models.BookableUnit{
					Category:  types.UnitCategory(body.Category),
					Name:      body.Name,
					Slug:      slug.Make(body.Name),
					Price:     body.Price,
					Currency:  body.Currency,
					Capacity:  body.Capacity,
					PartnerID: partner.ID,
				}
				return tx.Create(&unit).Error
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": unit})
		}).
		GET("/units", func(ctx *gin.Context) {
			db := db.GetDb()
			var units []models.BookableUnit
			query := db.Model(&models.BookableUnit{}).Preload("Partner")
			if category := ctx.Query("category"); category != "" {
				query = query.Where("category = ?", category)
			}
			if err := query.Limit(100).Find(&units).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			for i := range units {
				units[i].Stats = &models.UnitStats{
					UnitID:    units[i].ID,
					Free:      units[i].Capacity - units[i].Committed,
					Committed: units[i].Committed,
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": units, "count": len(units)})
		}).
		GET("/units/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var unit models.BookableUnit
			if err := db.Preload("Partner").Where(&models.BookableUnit{ID: params.ID}).First(&unit).Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			unit.Stats = &models.UnitStats{
				UnitID:    unit.ID,
				Free:      unit.Capacity - unit.Committed,
				Committed: unit.Committed,
			}
			ctx.JSON(http.StatusOK, gin.H{"data": unit})
		})
	return g
}

package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/bookscatalog/go-books-api/catalog"
	"github.com/gin-gonic/gin"
)

func (s *Server) listBooks(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Books())
}

func (s *Server) searchBooks(c *gin.Context) {
	title := c.Query("title")
	category := c.Query("category")

	books, err := s.catalog.Search(title, category)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nenhum livro encontrado com os filtros fornecidos"})
		return
	}
	c.JSON(http.StatusOK, books)
}

func (s *Server) getBook(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id deve ser um inteiro"})
		return
	}

	book, err := s.catalog.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("livro com ID %d não encontrado", id)})
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) topRated(c *gin.Context) {
	books, err := s.catalog.TopRated()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "nenhum livro com rating 5 encontrado"})
		return
	}
	c.JSON(http.StatusOK, books)
}

func (s *Server) priceRange(c *gin.Context) {
	min := 0.0
	max := math.Inf(1)

	if raw := c.Query("min"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min deve ser numérico"})
			return
		}
		min = value
	}
	if raw := c.Query("max"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max deve ser numérico"})
			return
		}
		max = value
	}

	books, err := s.catalog.PriceRange(min, max)
	switch {
	case errors.Is(err, catalog.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "min deve ser menor que max"})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "nenhum livro na faixa de preço fornecida"})
	default:
		c.JSON(http.StatusOK, books)
	}
}

func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Categories())
}

func (s *Server) overviewStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.Overview())
}

func (s *Server) categoryStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.CategoryStats())
}

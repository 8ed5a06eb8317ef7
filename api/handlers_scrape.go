package api

import (
	"errors"
	"net/http"

	"github.com/bookscatalog/go-books-api/scrape"
	"github.com/gin-gonic/gin"
)

func (s *Server) triggerScrape(c *gin.Context) {
	err := s.runner.TryStart()
	switch {
	case errors.Is(err, scrape.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "a tarefa de scraping já está em execução, verifique /api/v1/scrap_status"})
	case errors.Is(err, scrape.ErrUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "collector indisponível"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"message":         "atualização do scraping iniciada em segundo plano",
			"status_endpoint": "/api/v1/scrap_status",
			"user":            c.GetString("username"),
		})
	}
}

func (s *Server) scrapeStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Status())
}

package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

func (suite *HandlersTestSuite) TestShowForm() {
	suite.Run("success", func() {
		body := suite.e.GET("/").
			Expect().
			Status(http.StatusOK).
			ContentType("text/html").
			Body()

		body.Contains(`<textarea name="links"`)
		body.Contains(`formaction="/download"`)
		body.NotContains("<table>")
	})
}

func (suite *HandlersTestSuite) TestSubmitForm() {
	suite.Run("no links", func() {
		suite.e.POST("/").
			WithFormField("links", "  \n\n ").
			Expect().
			Status(http.StatusOK).
			Body().Contains(msgNoLinks)
	})

	suite.Run("too many links", func() {
		body := suite.e.POST("/").
			WithFormField("links", strings.Join(manyURLs(maxURLsPerRequest+1), "\n")).
			Expect().
			Status(http.StatusOK).
			Body()

		body.Contains(msgTooManyLinks)
		body.NotContains("<table>")
	})

	suite.Run("limit is inclusive", func() {
		urls := manyURLs(maxURLsPerRequest)
		suite.viewsUseCaseMock.
			On("Lookup", mock.Anything, urls).
			Once().
			Return([]entity.Lookup{}, nil)

		suite.e.POST("/").
			WithFormField("links", strings.Join(urls, "\n")).
			Expect().
			Status(http.StatusOK).
			Body().NotContains(msgTooManyLinks)
	})

	suite.Run("lookup error is not shown verbatim", func() {
		suite.viewsUseCaseMock.
			On("Lookup", mock.Anything, []string{"https://vk.com/video-1_2"}).
			Once().
			Return(nil, errors.New("dial tcp: connection refused"))

		body := suite.e.POST("/").
			WithFormField("links", "https://vk.com/video-1_2\n").
			Expect().
			Status(http.StatusOK).
			Body()

		body.Contains(msgLookupFailed)
		body.NotContains("connection refused")
		body.Contains("https://vk.com/video-1_2")
	})

	suite.Run("success", func() {
		suite.viewsUseCaseMock.
			On("Lookup", mock.Anything, []string{"https://vk.com/video-1_2", "https://example.com/clip"}).
			Once().
			Return(suite.lookups(), nil)

		body := suite.e.POST("/").
			WithFormField("links", " https://vk.com/video-1_2 \r\n\r\nhttps://example.com/clip").
			Expect().
			Status(http.StatusOK).
			Body()

		body.Contains("<table>")
		body.Contains("<td>VK</td>")
		body.Contains(`<td class="views">42</td>`)
		body.Contains("<td>Unknown</td>")
		body.Contains(`<td class="views"></td>`)
		body.NotContains(msgLookupFailed)
		body.Contains(time.Now().Format(dateLayout))
	})
}

func (suite *HandlersTestSuite) TestDownload() {
	suite.Run("no links", func() {
		resp := suite.e.POST("/download").
			WithFormField("links", "").
			Expect().
			Status(http.StatusOK)

		resp.ContentType("text/csv")
		resp.Body().IsEqual("url,platform,views\n")
	})

	suite.Run("too many links", func() {
		suite.e.POST("/download").
			WithFormField("links", strings.Join(manyURLs(maxURLsPerRequest+1), "\n")).
			Expect().
			Status(http.StatusBadRequest).
			Body().Contains("too many urls")
	})

	suite.Run("server error", func() {
		suite.viewsUseCaseMock.
			On("Lookup", mock.Anything, []string{"https://vk.com/video-1_2"}).
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.POST("/download").
			WithFormField("links", "https://vk.com/video-1_2").
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.viewsUseCaseMock.
			On("Lookup", mock.Anything, []string{"https://vk.com/video-1_2", "https://example.com/clip"}).
			Once().
			Return(suite.lookups(), nil)

		resp := suite.e.POST("/download").
			WithFormField("links", "https://vk.com/video-1_2\nhttps://example.com/clip").
			Expect().
			Status(http.StatusOK)

		resp.ContentType("text/csv")
		resp.Header("Content-Disposition").
			Contains(`attachment; filename="social_views_` + time.Now().Format(dateLayout) + `.csv"`)
		resp.Body().IsEqual("url,platform,views\nhttps://vk.com/video-1_2,VK,42\nhttps://example.com/clip,Unknown,\n")
	})
}

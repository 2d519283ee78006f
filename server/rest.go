// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/gorse-io/itemcf/base/log"
	"github.com/gorse-io/itemcf/config"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/logics"
	"github.com/gorse-io/itemcf/storage/cache"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// RestServer implements a REST-ful API server.
type RestServer struct {
	Config      *config.Config
	Recommender *logics.Recommender
	WebService  *restful.WebService
	HttpServer  *http.Server
	limiter     *ratelimit.Bucket
}

func NewRestServer(cfg *config.Config, cacheClient cache.Database) *RestServer {
	s := &RestServer{
		Config:      cfg,
		Recommender: logics.NewRecommender(cacheClient),
		WebService:  new(restful.WebService),
	}
	if rate := cfg.Server.RateLimit; rate > 0 {
		s.limiter = ratelimit.NewBucketWithRate(rate, max(int64(rate), 1))
	}
	return s
}

// StartHttpServer starts the REST-ful API server. It blocks until the server is shut down.
func (s *RestServer) StartHttpServer(container *restful.Container) error {
	// register restful APIs
	s.CreateWebService()
	container.Add(s.WebService)
	// register swagger UI
	specConfig := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	container.Add(restfulspec.NewOpenAPIService(specConfig))
	// register prometheus
	container.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.HttpServer = &http.Server{
		Addr:    addr,
		Handler: container,
	}
	log.Logger().Info("start http server",
		zap.String("url", fmt.Sprintf("http://%s", addr)),
		zap.Bool("auth", s.Config.Server.APIKey != ""))
	if err := s.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Trace(err)
	}
	return nil
}

// Shutdown stops the REST-ful API server gracefully.
func (s *RestServer) Shutdown(ctx context.Context) error {
	if s.HttpServer == nil {
		return nil
	}
	return errors.Trace(s.HttpServer.Shutdown(ctx))
}

// LogFilter logs requests and records request latency. Responses carry the X-Request-ID of the
// request, or a generated one.
func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	requestId := req.HeaderParameter("X-Request-ID")
	if requestId == "" {
		requestId = uuid.New().String()
	}
	resp.Header().Set("X-Request-ID", requestId)
	chain.ProcessFilter(req, resp)
	RestAPIRequestSecondsVec.WithLabelValues(req.SelectedRoutePath()).Observe(time.Since(start).Seconds())
	log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()))
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	// Create a server
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(LogFilter)
	ws.Filter(s.rateLimit)
	ws.Filter(s.auth)

	/* Stateless recommendation */

	// Build co-occurrence matrix
	ws.Route(ws.POST("/cooccurrence").To(s.buildCoOccurrence).
		Doc("Build the normalized co-occurrence matrix of ratings.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads(RatingsRequest{}).
		Returns(http.StatusOK, "OK", [][]float64{}).
		Writes([][]float64{}))
	// Get recommendation
	ws.Route(ws.POST("/recommend").To(s.recommend).
		Doc("Get recommended items for a user, ordered by decreasing score.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads(RecommendRequest{}).
		Returns(http.StatusOK, "OK", []int{}).
		Writes([]int{}))
	// Get rated items
	ws.Route(ws.POST("/rated").To(s.ratedItems).
		Doc("Get items rated by a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Reads(RecommendRequest{}).
		Returns(http.StatusOK, "OK", []int{}).
		Writes([]int{}))

	/* Built-in datasets */

	// Get datasets
	ws.Route(ws.GET("/datasets").To(s.getDatasets).
		Doc("Get names of built-in datasets.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"dataset"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Returns(http.StatusOK, "OK", []string{}).
		Writes([]string{}))
	// Get recommendation on a dataset
	ws.Route(ws.GET("/dataset/{name}/recommend/{user-index}").To(s.getDatasetRecommend).
		Doc("Get recommended items with scores for a user of a built-in dataset.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"dataset"}).
		Param(ws.HeaderParameter("X-API-Key", "secret key for RESTful API")).
		Param(ws.PathParameter("name", "name of the dataset").DataType("string")).
		Param(ws.PathParameter("user-index", "index of the user").DataType("integer")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("integer")).
		Returns(http.StatusOK, "OK", []logics.ItemScore{}).
		Writes([]logics.ItemScore{}))
}

// RatingsRequest carries a ratings matrix. Each row holds the ratings of a user, 1 for liked and 0 for unrated.
type RatingsRequest struct {
	Ratings any `json:"ratings"`
}

// RecommendRequest carries a ratings matrix, a user index and an optional similarity matrix.
type RecommendRequest struct {
	Ratings    any `json:"ratings"`
	User       any `json:"user"`
	Similarity any `json:"similarity,omitempty"`
}

func (s *RestServer) buildCoOccurrence(request *restful.Request, response *restful.Response) {
	var req RatingsRequest
	if err := request.ReadEntity(&req); err != nil {
		BadRequest(response, err)
		return
	}
	ratings, err := dataset.ParseRatings(req.Ratings)
	if err != nil {
		Error(response, err)
		return
	}
	start := time.Now()
	similarity, err := s.Recommender.Similarity(request.Request.Context(), ratings)
	if err != nil {
		Error(response, err)
		return
	}
	BuildCoOccurrenceSeconds.Observe(time.Since(start).Seconds())
	Ok(response, logics.SimilarityRows(similarity))
}

func (s *RestServer) recommend(request *restful.Request, response *restful.Response) {
	var req RecommendRequest
	if err := request.ReadEntity(&req); err != nil {
		BadRequest(response, err)
		return
	}
	ratings, userIndex, err := parseUser(req)
	if err != nil {
		Error(response, err)
		return
	}
	start := time.Now()
	var similarity *mat.Dense
	if req.Similarity != nil {
		rows, err := dataset.ParseMatrix(req.Similarity)
		if err != nil {
			Error(response, err)
			return
		}
		if similarity, err = logics.NewSimilarity(rows); err != nil {
			Error(response, err)
			return
		}
	} else if similarity, err = s.Recommender.Similarity(request.Request.Context(), ratings); err != nil {
		Error(response, err)
		return
	}
	recommendations, err := logics.GetRecommendations(ratings, similarity, userIndex)
	if err != nil {
		Error(response, err)
		return
	}
	GetRecommendSeconds.Observe(time.Since(start).Seconds())
	Ok(response, recommendations)
}

func (s *RestServer) ratedItems(request *restful.Request, response *restful.Response) {
	var req RecommendRequest
	if err := request.ReadEntity(&req); err != nil {
		BadRequest(response, err)
		return
	}
	ratings, userIndex, err := parseUser(req)
	if err != nil {
		Error(response, err)
		return
	}
	items, err := logics.RatedItems(ratings, userIndex)
	if err != nil {
		Error(response, err)
		return
	}
	Ok(response, items)
}

func parseUser(req RecommendRequest) (*dataset.Ratings, int, error) {
	ratings, err := dataset.ParseRatings(req.Ratings)
	if err != nil {
		return nil, 0, err
	}
	userIndex, err := dataset.ParseUserIndex(req.User, ratings.Users())
	if err != nil {
		return nil, 0, err
	}
	return ratings, userIndex, nil
}

func (s *RestServer) getDatasets(_ *restful.Request, response *restful.Response) {
	Ok(response, dataset.BuiltInNames())
}

func (s *RestServer) getDatasetRecommend(request *restful.Request, response *restful.Response) {
	name := request.PathParameter("name")
	n, err := ParseInt(request, "n", s.Config.Server.DefaultN)
	if err != nil {
		BadRequest(response, err)
		return
	}
	ratings, err := dataset.LoadBuiltIn(name)
	if err != nil {
		Error(response, err)
		return
	}
	userIndex, err := dataset.ParseUserIndex(json.Number(request.PathParameter("user-index")), ratings.Users())
	if err != nil {
		Error(response, err)
		return
	}
	start := time.Now()
	scores, err := s.Recommender.Recommend(request.Request.Context(), ratings, userIndex, n)
	if err != nil {
		Error(response, err)
		return
	}
	GetRecommendSeconds.Observe(time.Since(start).Seconds())
	Ok(response, scores)
}

// ParseInt parses integers from the query parameter.
func ParseInt(request *restful.Request, name string, fallback int) (value int, err error) {
	valueString := request.QueryParameter(name)
	value, err = strconv.Atoi(valueString)
	if err != nil && valueString == "" {
		value = fallback
		err = nil
	}
	return
}

// Error writes an error with a status code decided by its kind.
func Error(response *restful.Response, err error) {
	switch {
	case dataset.IsBadInput(err):
		BadRequest(response, err)
	case errors.Is(err, errors.NotFound):
		PageNotFound(response, err)
	default:
		InternalServerError(response, err)
	}
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	BadRequestTotal.Inc()
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}

func (s *RestServer) rateLimit(request *restful.Request, response *restful.Response, chain *restful.FilterChain) {
	if s.limiter != nil && s.limiter.TakeAvailable(1) == 0 {
		if err := response.WriteError(http.StatusTooManyRequests, errors.New("too many requests")); err != nil {
			log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
		}
		return
	}
	chain.ProcessFilter(request, response)
}

func (s *RestServer) auth(request *restful.Request, response *restful.Response, chain *restful.FilterChain) {
	if s.Config.Server.APIKey == "" {
		chain.ProcessFilter(request, response)
		return
	}
	apikey := request.HeaderParameter("X-API-Key")
	if apikey == s.Config.Server.APIKey {
		chain.ProcessFilter(request, response)
		return
	}
	log.ResponseLogger(response).Error("unauthorized", zap.String("X-API-Key", apikey))
	if err := response.WriteError(http.StatusUnauthorized, errors.New("unauthorized")); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

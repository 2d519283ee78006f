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
	"net/http"
	"testing"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/gorse-io/itemcf/config"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/logics"
	"github.com/gorse-io/itemcf/storage/cache"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/suite"
)

const apiKey = "test_api_key"

type ServerTestSuite struct {
	suite.Suite
	*RestServer
	cacheClient cache.Database
	handler     *restful.Container
}

func (suite *ServerTestSuite) SetupSuite() {
	var err error
	suite.cacheClient, err = cache.Open("memory://", time.Hour, 10)
	suite.NoError(err)
	cfg := config.GetDefaultConfig()
	cfg.Server.APIKey = apiKey
	suite.RestServer = NewRestServer(cfg, suite.cacheClient)
	suite.CreateWebService()
	// create handler
	suite.handler = restful.NewContainer()
	suite.handler.Add(suite.WebService)
}

func (suite *ServerTestSuite) TearDownSuite() {
	err := suite.cacheClient.Close()
	suite.NoError(err)
}

func (suite *ServerTestSuite) marshal(v interface{}) string {
	s, err := json.Marshal(v)
	suite.NoError(err)
	return string(s)
}

func (suite *ServerTestSuite) TestCoOccurrence() {
	t := suite.T()
	ratings, err := dataset.LoadBuiltIn("tiny")
	suite.NoError(err)
	similarity, err := logics.BuildCoOccurrence(ratings)
	suite.NoError(err)
	expected := logics.SimilarityRows(similarity)
	// build twice, the second one comes from cache
	for i := 0; i < 2; i++ {
		apitest.New().
			Handler(suite.handler).
			Post("/api/cooccurrence").
			Header("X-API-Key", apiKey).
			JSON(`{"ratings": [[1,1,1],[1,0,1],[1,0,0]]}`).
			Expect(t).
			Status(http.StatusOK).
			Body(suite.marshal(expected)).
			End()
	}
	// invalid ratings
	for _, body := range []string{
		`{"ratings": "ratings"}`,
		`{"ratings": [1,0,1]}`,
		`{"ratings": [[[1],[0]]]}`,
		`{"ratings": [[1,0],[1]]}`,
		`{"ratings": [[1,2]]}`,
		`{"ratings": []}`,
		`{"ratings": `,
	} {
		apitest.New().
			Handler(suite.handler).
			Post("/api/cooccurrence").
			Header("X-API-Key", apiKey).
			JSON(body).
			Expect(t).
			Status(http.StatusBadRequest).
			End()
	}
}

func (suite *ServerTestSuite) TestRecommend() {
	t := suite.T()
	for _, c := range []struct {
		user     string
		expected string
	}{
		{"0", `[]`},
		{"1", `[1]`},
		{"2", `[2,1]`},
	} {
		apitest.New().
			Handler(suite.handler).
			Post("/api/recommend").
			Header("X-API-Key", apiKey).
			JSON(`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": ` + c.user + `}`).
			Expect(t).
			Status(http.StatusOK).
			Body(c.expected).
			End()
	}
	// provided similarity matrix
	apitest.New().
		Handler(suite.handler).
		Post("/api/recommend").
		Header("X-API-Key", apiKey).
		JSON(`{"ratings": [[1,0,0]], "user": 0, "similarity": [[0,0.1,0.9],[0.1,0,0],[0.9,0,0]]}`).
		Expect(t).
		Status(http.StatusOK).
		Body(`[2,1]`).
		End()
	// invalid requests
	for _, body := range []string{
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 4.7}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 3}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": -1}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": "1"}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]]}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 1, "similarity": [[0,1],[1,0]]}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 1, "similarity": [[0,1,1],[1,0]]}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 1, "similarity": "similarity"}`,
		`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 1, "similarity": [[[0],[1],[1]],[[1],[0],[1]],[[1],[1],[0]]]}`,
		`{"ratings": [1,1,1], "user": 0}`,
	} {
		apitest.New().
			Handler(suite.handler).
			Post("/api/recommend").
			Header("X-API-Key", apiKey).
			JSON(body).
			Expect(t).
			Status(http.StatusBadRequest).
			End()
	}
}

func (suite *ServerTestSuite) TestRated() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Post("/api/rated").
		Header("X-API-Key", apiKey).
		JSON(`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 1}`).
		Expect(t).
		Status(http.StatusOK).
		Body(`[0,2]`).
		End()
	apitest.New().
		Handler(suite.handler).
		Post("/api/rated").
		Header("X-API-Key", apiKey).
		JSON(`{"ratings": [[0,0]], "user": 0}`).
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()
	apitest.New().
		Handler(suite.handler).
		Post("/api/rated").
		Header("X-API-Key", apiKey).
		JSON(`{"ratings": [[1,1,1],[1,0,1],[1,0,0]], "user": 47}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func (suite *ServerTestSuite) TestDatasets() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Get("/api/datasets").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(`["sample","tiny"]`).
		End()

	ratings, err := dataset.LoadBuiltIn("sample")
	suite.NoError(err)
	recommender := logics.NewRecommender(nil)
	top3, err := recommender.Recommend(context.Background(), ratings, 6, 3)
	suite.NoError(err)
	apitest.New().
		Handler(suite.handler).
		Get("/api/dataset/sample/recommend/6").
		Header("X-API-Key", apiKey).
		QueryParams(map[string]string{"n": "3"}).
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal(top3)).
		End()
	top10, err := recommender.Recommend(context.Background(), ratings, 6, suite.Config.Server.DefaultN)
	suite.NoError(err)
	apitest.New().
		Handler(suite.handler).
		Get("/api/dataset/sample/recommend/6").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		Body(suite.marshal(top10)).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/dataset/unknown/recommend/0").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusNotFound).
		End()
	for _, path := range []string{
		"/api/dataset/sample/recommend/10",
		"/api/dataset/sample/recommend/4.7",
		"/api/dataset/sample/recommend/abc",
	} {
		apitest.New().
			Handler(suite.handler).
			Get(path).
			Header("X-API-Key", apiKey).
			Expect(t).
			Status(http.StatusBadRequest).
			End()
	}
	apitest.New().
		Handler(suite.handler).
		Get("/api/dataset/sample/recommend/6").
		Header("X-API-Key", apiKey).
		QueryParams(map[string]string{"n": "many"}).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func (suite *ServerTestSuite) TestRequestID() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Get("/api/datasets").
		Header("X-API-Key", apiKey).
		Header("X-Request-ID", "request-1").
		Expect(t).
		Status(http.StatusOK).
		Header("X-Request-ID", "request-1").
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/datasets").
		Header("X-API-Key", apiKey).
		Expect(t).
		Status(http.StatusOK).
		HeaderPresent("X-Request-ID").
		End()
}

func (suite *ServerTestSuite) TestAuth() {
	t := suite.T()
	apitest.New().
		Handler(suite.handler).
		Get("/api/datasets").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	apitest.New().
		Handler(suite.handler).
		Get("/api/datasets").
		Header("X-API-Key", "wrong_api_key").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestRateLimit(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Server.RateLimit = 1
	s := NewRestServer(cfg, nil)
	s.CreateWebService()
	handler := restful.NewContainer()
	handler.Add(s.WebService)
	apitest.New().
		Handler(handler).
		Get("/api/datasets").
		Expect(t).
		Status(http.StatusOK).
		End()
	apitest.New().
		Handler(handler).
		Get("/api/datasets").
		Expect(t).
		Status(http.StatusTooManyRequests).
		End()
}

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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/gorse-io/itemcf/base/log"
	"github.com/gorse-io/itemcf/cmd/version"
	"github.com/gorse-io/itemcf/config"
	"github.com/gorse-io/itemcf/dataset"
	"github.com/gorse-io/itemcf/logics"
	"github.com/gorse-io/itemcf/server"
	"github.com/gorse-io/itemcf/storage/cache"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "itemcf",
	Short: "Item-based collaborative filtering recommender.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			log.CloseLogger()
			return
		}
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend items for a user or all users.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		data, err := loadDataset(cmd, conf)
		if err != nil {
			return errors.Trace(err)
		}
		n := conf.Server.DefaultN
		if cmd.Flags().Changed("n") {
			n, _ = cmd.Flags().GetInt("n")
		}
		recommender := logics.NewRecommender(nil)

		if all, _ := cmd.Flags().GetBool("all"); all {
			jobs, _ := cmd.Flags().GetInt("jobs")
			bar := progressbar.NewOptions(data.Ratings.Users(),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("Recommending"))
			results, err := recommender.RecommendAll(cmd.Context(), data.Ratings, n, jobs, func() {
				_ = bar.Add(1)
			})
			if err != nil {
				return errors.Trace(err)
			}
			_ = bar.Finish()
			return renderAll(cmd.OutOrStdout(), results, data.UserDict, data.ItemDict)
		}

		userIndex, err := findUser(cmd, data)
		if err != nil {
			return errors.Trace(err)
		}
		scores, err := recommender.Recommend(cmd.Context(), data.Ratings, userIndex, n)
		if err != nil {
			return errors.Trace(err)
		}
		return renderScores(cmd.OutOrStdout(), scores, data.ItemDict)
	},
}

var matrixCommand = &cobra.Command{
	Use:   "matrix",
	Short: "Print the item similarity matrix.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		data, err := loadDataset(cmd, conf)
		if err != nil {
			return errors.Trace(err)
		}
		similarity, err := logics.BuildCoOccurrence(data.Ratings)
		if err != nil {
			return errors.Trace(err)
		}
		return renderMatrix(cmd.OutOrStdout(), similarity, data.ItemDict)
	},
}

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the RESTful API server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return errors.Trace(err)
		}
		cacheClient, err := cache.Open(conf.Cache.Store, conf.Cache.TTL, conf.Cache.Capacity)
		if err != nil {
			return errors.Annotatef(err, "failed to open cache store %s", log.RedactURL(conf.Cache.Store))
		}
		defer func() {
			if err := cacheClient.Close(); err != nil && !errors.Is(err, cache.ErrNoDatabase) {
				log.Logger().Error("failed to close cache store", zap.Error(err))
			}
		}()
		if err = cache.WaitReady(cmd.Context(), cacheClient, 5); err != nil {
			return errors.Annotatef(err, "cache store %s is not ready", log.RedactURL(conf.Cache.Store))
		}
		log.Logger().Info("open cache store", zap.String("store", log.RedactURL(conf.Cache.Store)))

		s := server.NewRestServer(conf, cacheClient)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				log.Logger().Error("failed to shutdown http server", zap.Error(err))
			}
		}()
		if err = s.StartHttpServer(restful.NewContainer()); err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("stop itemcf server successfully")
		return nil
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().BoolP("quiet", "q", false, "only print fatal logs")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "itemcf version")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")

	for _, command := range []*cobra.Command{recommendCommand, matrixCommand} {
		command.Flags().String("dataset", "sample", "name of a built-in dataset")
		command.Flags().String("matrix", "", "path of a rating matrix file")
		command.Flags().String("feedback", "", "path of a feedback file")
		command.MarkFlagsMutuallyExclusive("dataset", "matrix", "feedback")
	}
	recommendCommand.Flags().Int("user", 0, "index of the user")
	recommendCommand.Flags().String("user-id", "", "identifier of the user in the feedback file")
	recommendCommand.Flags().Bool("all", false, "recommend items for all users")
	recommendCommand.Flags().Int("n", 10, "number of recommended items")
	recommendCommand.Flags().IntP("jobs", "j", 1, "number of working jobs")

	rootCommand.AddCommand(recommendCommand, matrixCommand, serveCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		log.Logger().Info("load config", zap.String("config", configPath))
	}
	return config.LoadConfig(configPath)
}

// loadDataset loads ratings from a feedback file, a rating matrix file or a built-in dataset.
// Dictionaries are nil unless ratings come from a feedback file.
func loadDataset(cmd *cobra.Command, conf *config.Config) (*dataset.Feedback, error) {
	if path, _ := cmd.Flags().GetString("feedback"); path != "" {
		return dataset.LoadFeedback(path, dataset.FeedbackOptions{
			Separator: conf.Dataset.SeparatorRune(),
			HasHeader: conf.Dataset.HasHeader,
			Positive:  conf.Dataset.PositiveFeedback,
		})
	}
	var (
		ratings *dataset.Ratings
		err     error
	)
	if path, _ := cmd.Flags().GetString("matrix"); path != "" {
		ratings, err = dataset.LoadMatrix(path, conf.Dataset.SeparatorRune())
	} else {
		name, _ := cmd.Flags().GetString("dataset")
		ratings, err = dataset.LoadBuiltIn(name)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &dataset.Feedback{Ratings: ratings}, nil
}

func findUser(cmd *cobra.Command, data *dataset.Feedback) (int, error) {
	if userId, _ := cmd.Flags().GetString("user-id"); userId != "" {
		if data.UserDict == nil {
			return 0, errors.NotSupportedf("--user-id without --feedback")
		}
		userIndex, ok := data.UserDict.Index(userId)
		if !ok {
			return 0, errors.NotFoundf("user %s", userId)
		}
		return userIndex, nil
	}
	userIndex, _ := cmd.Flags().GetInt("user")
	return userIndex, nil
}

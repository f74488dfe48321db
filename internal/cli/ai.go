package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/shiksha/internal/domain"
	"github.com/samvad-hq/shiksha/pkg/exporters"
	"github.com/samvad-hq/shiksha/pkg/portal"
)

var learningPathCmd = &cobra.Command{
	Use:   "learning-path QUERY...",
	Short: "Generate a learning roadmap",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		md, err := rt.Service().LearningPath(cmd.Context(), query)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		export(cmd, exporters.KindLearningPath, query, md)
		return nil
	},
}

var (
	paperTopic  string
	paperType   string
	paperFormat string
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Generate a research paper draft",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := portal.PaperRequest{Topic: paperTopic, PaperType: paperType, PaperFormat: paperFormat}
		paper, err := rt.Service().GeneratePaper(cmd.Context(), req)
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), paper); err != nil {
			return err
		}
		export(cmd, exporters.KindPaper, req, paper)
		return nil
	},
}

var (
	mcqFile       string
	mcqDifficulty string
	mcqCount      int
)

var mcqCmd = &cobra.Command{
	Use:   "mcq",
	Short: "Generate multiple-choice questions from a document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Open(mcqFile)
		if err != nil {
			return fmt.Errorf("open document: %w", err)
		}
		defer f.Close()

		req := portal.MCQRequest{
			Difficulty: mcqDifficulty,
			Count:      mcqCount,
			FileName:   filepath.Base(mcqFile),
			File:       f,
		}
		set, err := rt.Service().GenerateMCQ(cmd.Context(), req)
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), set); err != nil {
			return err
		}
		export(cmd, exporters.KindMCQ, req, set)
		return nil
	},
}

var mcqSaveCmd = &cobra.Command{
	Use:   "mcq-save FILE.json",
	Short: "Save a generated question set to the portal",
	Long: `Save a question set, usually the output of "shiksha mcq", to the portal.
Use "-" to read the set from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := readMCQSet(cmd, args[0])
		if err != nil {
			return err
		}
		saved, err := rt.Service().SaveMCQ(cmd.Context(), set)
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), saved); err != nil {
			return err
		}
		export(cmd, exporters.KindMCQ, set, saved)
		return nil
	},
}

func readMCQSet(cmd *cobra.Command, path string) (domain.MCQSet, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.MCQSet{}, fmt.Errorf("read question set: %w", err)
	}
	var set domain.MCQSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.MCQSet{}, fmt.Errorf("decode question set: %w", err)
	}
	return set, nil
}

var interviewCmd = &cobra.Command{
	Use:   "interview JOB_TITLE...",
	Short: "Generate interview questions for a role",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		qs, err := rt.Service().InterviewQuestions(cmd.Context(), title)
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), qs); err != nil {
			return err
		}
		export(cmd, exporters.KindInterview, title, qs)
		return nil
	},
}

func init() {
	paperCmd.Flags().StringVar(&paperTopic, "topic", "", "Paper topic (at least 10 characters)")
	paperCmd.Flags().StringVar(&paperType, "type", "", "Paper type, e.g. research or review")
	paperCmd.Flags().StringVar(&paperFormat, "format", "", "Paper format, e.g. IEEE or APA")

	mcqCmd.Flags().StringVar(&mcqFile, "file", "", "Document to generate questions from")
	mcqCmd.Flags().StringVar(&mcqDifficulty, "difficulty", "medium", "easy, medium or hard")
	mcqCmd.Flags().IntVar(&mcqCount, "count", 10, "Number of questions (1-50)")
	_ = mcqCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(learningPathCmd, paperCmd, mcqCmd, mcqSaveCmd, interviewCmd)
}

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/aptaudit/client"
)

type answerFlags struct {
	boolVal string
	text    string
	number  string
	options []int64
	notes   string
	photos  []string
}

// request builds the answer payload. Exactly one of --bool, --text, --number
// may be set; choice answers use --option only.
func (f *answerFlags) request() (*client.AnswerRequest, error) {
	req := &client.AnswerRequest{SelectedOptionIDs: f.options, Notes: f.notes}

	set := 0
	if f.boolVal != "" {
		b, err := strconv.ParseBool(f.boolVal)
		if err != nil {
			return nil, errors.New("--bool must be true or false")
		}
		req.Value.Bool = &b
		set++
	}
	if f.text != "" {
		t := f.text
		req.Value.Text = &t
		set++
	}
	if f.number != "" {
		n, err := strconv.ParseFloat(f.number, 64)
		if err != nil {
			return nil, errors.New("--number must be numeric")
		}
		req.Value.Number = &n
		set++
	}
	if set > 1 {
		return nil, errors.New("only one of --bool, --text, --number may be given")
	}
	if set == 0 && len(f.options) == 0 && len(f.photos) == 0 {
		return nil, errors.New("an answer needs a value, --option or --photo")
	}
	return req, nil
}

func newAnswerCmd() *cobra.Command {
	var f answerFlags
	cmd := &cobra.Command{
		Use:   "answer <audit-id> <item-id>",
		Short: "Answer an audit item",
		Example: `  aptaudit answer 12 340 --bool=false --option 7 --notes "no spare key"
  aptaudit answer 12 341 --photo stove.jpg --photo oven.jpg`,
		Args: idArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := f.request()
			return err
		},
		Run: func(cmd *cobra.Command, args []string) {
			req, _ := f.request()
			auditID, itemID := mustID(args[0]), mustID(args[1])

			var (
				result *client.AnswerResult
				err    error
			)
			if len(f.photos) > 0 {
				result, err = answerWithPhotos(auditID, itemID, req, f.photos)
			} else {
				result, err = apiClient.Answers.Answer(context.Background(), auditID, itemID, req)
			}
			if err != nil {
				fatal("answer item", err)
			}

			output(result, strconv.FormatFloat(result.CompletionRate, 'f', 1, 64), func() {
				if len(result.Incidences) > 0 {
					formatTable([]string{"INCIDENCE", "SEVERITY", "STATUS", "ITEM", "TITLE"}, incidenceRows(result.Incidences))
				}
				if len(result.FollowUps) > 0 {
					formatTable([]string{"FOLLOW-UP", "QUESTION", "TYPE", "ANSWERED", "TEXT"}, itemRows(result.FollowUps))
				}
			})
		},
	}
	cmd.Flags().StringVar(&f.boolVal, "bool", "", "Boolean answer (true|false)")
	cmd.Flags().StringVar(&f.text, "text", "", "Text answer")
	cmd.Flags().StringVar(&f.number, "number", "", "Numeric answer")
	cmd.Flags().Int64SliceVar(&f.options, "option", nil, "Selected option id (repeatable)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Free-form notes")
	cmd.Flags().StringArrayVar(&f.photos, "photo", nil, "Photo file to attach (repeatable)")
	return cmd
}

func answerWithPhotos(auditID, itemID int64, req *client.AnswerRequest, paths []string) (*client.AnswerResult, error) {
	files := make([]client.PhotoFile, 0, len(paths))
	for _, p := range paths {
		fh, err := os.Open(p) //nolint:gosec // user-supplied path is intended.
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		files = append(files, client.PhotoFile{Filename: filepath.Base(p), Body: fh})
	}
	return apiClient.Answers.AnswerWithPhotos(context.Background(), auditID, itemID, req, files)
}

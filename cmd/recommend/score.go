package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	service "github.com/okian/collegepath/internal/app"
	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/scoring"
	"github.com/okian/collegepath/internal/domain/types"
)

func newScoreCmd(root *rootOptions) *cobra.Command {
	var (
		form types.StudentForm
		top  int
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one student profile",
		Example: `  recommend score --stream science --state delhi --marks10th 93 --marks12th 95 --percentile 99.5
  recommend score --stream arts --state punjab --marks10th 70 --marks12th 72 --percentile 85 -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := service.New(service.WithMaxRecommendations(top))
			rec, err := svc.Recommend(cmd.Context(), form)
			if err != nil {
				var invalid *profile.InvalidInputError
				if errors.As(err, &invalid) {
					printFieldErrors(cmd.ErrOrStderr(), invalid.Fields)
				}
				return err
			}
			if root.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderRecommendation(rec))
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "Student name")
	f.StringVar(&form.State, "state", "", "Home state, e.g. delhi or tamil-nadu")
	f.StringVar(&form.Stream, "stream", "", "Stream: science, commerce or arts")
	f.Var(newFormValue(&form.Marks10th), "marks10th", "10th grade marks (%)")
	f.Var(newFormValue(&form.Marks12th), "marks12th", "12th grade marks (%)")
	f.Var(newFormValue(&form.Percentile), "percentile", "Entrance exam percentile")
	f.IntVarP(&top, "top", "n", scoring.DefaultTopN, "Maximum number of colleges to show")
	return cmd
}

// formValue lets a types.FormValue be a pflag value.
type formValue struct {
	v *types.FormValue
}

func newFormValue(v *types.FormValue) *formValue { return &formValue{v: v} }

func (f *formValue) String() string {
	if f.v == nil {
		return ""
	}
	return string(*f.v)
}

func (f *formValue) Set(s string) error {
	*f.v = types.FormValue(s)
	return nil
}

func (f *formValue) Type() string { return "number" }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

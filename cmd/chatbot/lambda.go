package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"ollama-chatbot/handler"
)

func newLambdaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve the chat API as an API Gateway Lambda function",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			h, err := handler.NewHandler(a.chat, a.log.Named("lambda"))
			if err != nil {
				return err
			}
			lambda.Start(h.Handle)
			return nil
		},
	}
}

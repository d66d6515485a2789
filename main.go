package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"gonav/navigation"
	"gonav/neuralnet"
)

func main() {
	out := flag.String("out", "trained_weights.json", "file to save the trained model to")
	load := flag.String("load", "", "evaluate a saved model instead of training a new one")
	patterns := flag.String("patterns", "", "training patterns file (default: built-in 16-pattern set)")
	epochs := flag.Int("epochs", 100000, "maximum training epochs")
	threshold := flag.Float64("threshold", 0.004, "mean error at which training stops")
	lr := flag.Float64("lr", 0.3, "learning rate")
	momentum := flag.Float64("momentum", 0.9, "momentum")
	hidden := flag.Int("hidden", 5, "hidden layer neurons")
	seed := flag.Uint64("seed", 0, "random seed (0 picks one)")
	verbose := flag.Bool("v", false, "log training progress and every validation pattern")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []neuralnet.Option{neuralnet.WithLogger(logger)}
	if *seed != 0 {
		opts = append(opts, neuralnet.WithRand(rand.New(rand.NewPCG(*seed, 0))))
	}

	var nn *neuralnet.NeuralNetwork
	var err error
	if *load != "" {
		nn, err = neuralnet.Load(*load, opts...)
		if err != nil {
			fmt.Println("Error loading model:", err)
			os.Exit(1)
		}
	} else {
		nn, err = train(*patterns, *hidden, neuralnet.NewParams(*lr, *momentum), *epochs, *threshold, *verbose, opts)
		if err != nil {
			fmt.Println("Error training network:", err)
			os.Exit(1)
		}
	}
	fmt.Println(nn.ArchitectureInfo())

	val := navigation.ValidationSet()
	valErr, err := nn.Validate(val.Inputs(), val.Targets(), *verbose)
	if err != nil {
		fmt.Println("Error validating network:", err)
		os.Exit(1)
	}
	fmt.Printf("\nValidation error: %.6f\n", valErr)

	report(nn, logger)

	if *load == "" {
		if err := nn.SaveWeights(*out); err != nil {
			fmt.Println("Error saving model:", err)
			os.Exit(1)
		}
		fmt.Println("\nModel saved to", *out)
	}
}

func train(patterns string, hidden int, params neuralnet.Params, epochs int, threshold float64, verbose bool, opts []neuralnet.Option) (*neuralnet.NeuralNetwork, error) {
	ds := navigation.TrainingSet()
	if patterns != "" {
		var err error
		if ds, err = navigation.LoadPatternFile(patterns, navigation.NumDirections); err != nil {
			return nil, err
		}
	}

	nn, err := neuralnet.NewNeuralNetwork(navigation.NumDirections, ds.TargetWidth(), params, opts...)
	if err != nil {
		return nil, err
	}
	if err := nn.AddHiddenLayer(hidden, neuralnet.Sigmoid, neuralnet.DefaultWeightInitRange); err != nil {
		return nil, err
	}
	if err := nn.Finalize(neuralnet.Sigmoid, neuralnet.DefaultWeightInitRange); err != nil {
		return nil, err
	}

	res, err := nn.TrainBatch(ds.Inputs(), ds.Targets(), epochs, threshold, verbose)
	if err != nil {
		return nil, err
	}
	if res.Converged {
		fmt.Printf("Converged at epoch %d, mean error %.6f\n\n", res.Epochs, res.Error)
	} else {
		fmt.Printf("Stopped after %d epochs without reaching %.4f, mean error %.6f\n\n", epochs, threshold, res.Error)
	}
	return nn, nil
}

// report runs every scenario through a controller and prints the outcome.
func report(nn *neuralnet.NeuralNetwork, logger *slog.Logger) {
	if nn.OutputSize() != 1 {
		return
	}
	c, err := navigation.NewController(nn, navigation.DefaultNearThreshold, logger)
	if err != nil {
		fmt.Println("Error building controller:", err)
		return
	}
	fmt.Println("\nScenarios:")
	for _, sc := range navigation.Scenarios() {
		d, err := c.DecideFlags(sc.Input)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		mark := "ok"
		if d.Action != sc.Expected {
			mark = "expected " + sc.Expected.String()
		}
		fmt.Printf("  %-38s %v -> %.4f %-10s %s\n", sc.Description, sc.Input, d.Output, d.Action, mark)
	}
	fmt.Println()
	fmt.Print(c.Stats())
}

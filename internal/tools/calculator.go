package tools

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/voxagent/voxagent/internal/schema"
)

var ErrDivisionByZero = errors.New("division by zero")

type calcInput struct {
	Operation string   `mapstructure:"operation"`
	A         float64  `mapstructure:"a"`
	B         *float64 `mapstructure:"b"`
}

// CalculateTool performs one arithmetic operation on two operands.
func CalculateTool() ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolCalculate),
		Description: "Perform a mathematical calculation. Use this for any arithmetic the user asks for.",
		Parameters: map[string]schema.ParamSpec{
			"operation": {
				Type:        schema.TypeString,
				Description: "The operation to perform",
				Required:    true,
				Enum:        []string{"add", "subtract", "multiply", "divide", "power", "modulo", "sqrt"},
			},
			"a": {Type: schema.TypeNumber, Description: "First operand", Required: true},
			"b": {Type: schema.TypeNumber, Description: "Second operand (not used by sqrt)"},
		},
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			var in calcInput
			if err := Decode(args, &in); err != nil {
				return nil, err
			}
			result, err := calculate(in)
			if err != nil {
				return nil, err
			}
			out := map[string]any{
				"status":    StatusSuccess,
				"operation": in.Operation,
				"a":         in.A,
				"result":    result,
			}
			if in.B != nil {
				out["b"] = *in.B
			}
			return out, nil
		},
	}
}

func calculate(in calcInput) (float64, error) {
	if in.Operation == "sqrt" {
		if in.A < 0 {
			return 0, fmt.Errorf("cannot take the square root of %v", in.A)
		}
		return math.Sqrt(in.A), nil
	}

	if in.B == nil {
		return 0, fmt.Errorf("operation %s needs operand b", in.Operation)
	}
	a, b := in.A, *in.B

	var r float64
	switch in.Operation {
	case "add":
		r = a + b
	case "subtract":
		r = a - b
	case "multiply":
		r = a * b
	case "divide":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		r = a / b
	case "power":
		r = math.Pow(a, b)
	case "modulo":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		r = math.Mod(a, b)
	default:
		return 0, fmt.Errorf("unsupported operation %q", in.Operation)
	}

	if math.IsInf(r, 0) || math.IsNaN(r) {
		return 0, fmt.Errorf("result of %s is not a finite number", in.Operation)
	}
	return r, nil
}

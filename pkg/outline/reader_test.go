package outline

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"celldecode/internal/models"
)

func TestRead(t *testing.T) {
	input := "(0,0),(4,0),(4,4),(0,4)\n(10,10),(12,10),(12,12),(10,12)"
	outlines, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, outlines, 2)

	assert.Equal(t, models.Outline{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}, outlines[0])
	assert.Equal(t, models.Point{X: 12, Y: 12}, outlines[1][2])
}

func TestParseLine_WhitespaceAndEmptyTokens(t *testing.T) {
	points, err := ParseLine(" 1 , 2,, 3,4 , ")
	require.NoError(t, err)
	assert.Equal(t, models.Outline{{X: 1, Y: 2}, {X: 3, Y: 4}}, points)
}

func TestRead_SkipsBlankLines(t *testing.T) {
	outlines, err := Read(strings.NewReader("1,2,3,4\n\n   \n5,6,7,8\n"))
	require.NoError(t, err)
	assert.Len(t, outlines, 2)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantOdd  bool
		wantNone bool
	}{
		{"odd count", "1,2,3,4\n1,2,3\n", 2, true, false},
		{"malformed integer", "1,2,x,4\n", 1, false, false},
		{"float value", "1,2\n3,4.5\n", 2, false, false},
		{"overflow", "1," + strconv.Itoa(1<<40) + "\n", 1, false, false},
		{"only separators", "1,2,3,4\n , ,\n5,6,7,8\n", 2, false, true},
		{"only parentheses", "(),()\n", 1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outlines, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, outlines)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantLine, perr.Line)
			assert.Equal(t, tt.wantOdd, errors.Is(err, ErrOddCoordinates))
			assert.Equal(t, tt.wantNone, errors.Is(err, ErrNoCoordinates))
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outlines.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,0,1,0,1,1\n2,2,3\n"), 0644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path+":2")

	_, err = ReadFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

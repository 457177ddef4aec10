package sanmar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedHeader = "UNIQUE_KEY,STYLE#,PRODUCT_TITLE,PRODUCT_DESCRIPTION,MILL,CATEGORY_NAME,COLOR_NAME,SIZE,QTY,PIECE_PRICE,CASE_PRICE,FRONT_MODEL_IMAGE_URL"

func TestParseFeed_GroupsRowsByStyle(t *testing.T) {
	feed := strings.Join([]string{
		feedHeader,
		`1001,PC54,Core Cotton Tee,5.4oz cotton tee,Port & Company,T-Shirts,White,S,250,2.57,2.38,https://cdn/pc54_white.jpg`,
		`1002,PC54,Core Cotton Tee,5.4oz cotton tee,Port & Company,T-Shirts,White,M,410,2.57,2.38,https://cdn/pc54_white.jpg`,
		`2001,K110,Dry Zone Polo,Moisture-wicking polo,Port Authority,Polos/Knits,Navy,L,90,11.20,,https://cdn/k110_navy.jpg`,
	}, "\n")

	styles, rowErrors, err := ParseFeed(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, styles, 2)

	pc54 := styles[0]
	assert.Equal(t, "PC54", pc54.Code)
	require.Len(t, pc54.Rows, 2)
	assert.Equal(t, "White", pc54.Rows[0].ColorName)
	assert.Equal(t, 410, pc54.Rows[1].Quantity)
	assert.Equal(t, "2.57", pc54.Rows[0].PiecePrice.String())
	require.NotNil(t, pc54.Rows[0].CasePrice)
	assert.Equal(t, "2.38", pc54.Rows[0].CasePrice.String())

	k110 := styles[1]
	assert.Equal(t, "K110", k110.Code)
	assert.Nil(t, k110.Rows[0].CasePrice)
}

func TestParseFeed_MalformedRowsAreSkippedNotFatal(t *testing.T) {
	feed := strings.Join([]string{
		feedHeader,
		`1001,PC54,Core Cotton Tee,desc,Port & Company,T-Shirts,White,S,250,2.57,,`,
		`1002,,No Style Row,desc,Port & Company,T-Shirts,White,M,10,2.57,,`,
		`1003,PC54,Core Cotton Tee,desc,Port & Company,T-Shirts,White,L,not-a-number,2.57,,`,
		`1004,PC54,Core Cotton Tee,desc,Port & Company,T-Shirts,White,XL,80,$banana,,`,
		`1005,PC54,Core Cotton Tee,desc,Port & Company,T-Shirts,Red,S,120,2.57,,`,
	}, "\n")

	styles, rowErrors, err := ParseFeed(strings.NewReader(feed))
	require.NoError(t, err)

	// 5 data rows, 3 malformed: exactly 2 survive.
	require.Len(t, rowErrors, 3)
	require.Len(t, styles, 1)
	assert.Len(t, styles[0].Rows, 2)

	assert.Equal(t, 3, rowErrors[0].Line)
	assert.Contains(t, rowErrors[0].Reason, "missing style code")
	assert.Contains(t, rowErrors[1].Reason, "invalid quantity")
	assert.Contains(t, rowErrors[2].Reason, "invalid piece price")
}

func TestParseFeed_StripsBOMAndDollarSigns(t *testing.T) {
	feed := "\xEF\xBB\xBF" + feedHeader + "\n" +
		`1001,PC54,Core Cotton Tee,desc,Port & Company,T-Shirts,White,S,250,$2.57,$2.38,`

	styles, rowErrors, err := ParseFeed(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, styles, 1)
	assert.Equal(t, "2.57", styles[0].Rows[0].PiecePrice.String())
}

func TestParseFeed_EmptyFile(t *testing.T) {
	_, _, err := ParseFeed(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestParseFeed_MissingRequiredColumn(t *testing.T) {
	feed := "UNIQUE_KEY,PRODUCT_TITLE\n1,foo"
	_, _, err := ParseFeed(strings.NewReader(feed))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestParseFeed_LowercaseStyleCodesAreNormalized(t *testing.T) {
	feed := feedHeader + "\n" +
		`1001,pc54,Core Cotton Tee,desc,Port & Company,T-Shirts,White,S,250,2.57,,`

	styles, _, err := ParseFeed(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, styles, 1)
	assert.Equal(t, "PC54", styles[0].Code)
}

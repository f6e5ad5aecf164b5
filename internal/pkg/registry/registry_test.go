package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingModule struct {
	name     string
	priority int
	order    *[]string
}

func (m *recordingModule) Name() string  { return m.name }
func (m *recordingModule) Priority() int { return m.priority }
func (m *recordingModule) Init(ctx *ModuleContext) error {
	*m.order = append(*m.order, m.name)
	return nil
}

func TestInitModulesOrder(t *testing.T) {
	saved := moduleRegistry
	moduleRegistry = make(map[string]Module)
	t.Cleanup(func() { moduleRegistry = saved })

	var order []string
	Register(&recordingModule{name: "content", priority: 10, order: &order})
	Register(&recordingModule{name: "user", priority: 1, order: &order})
	Register(&recordingModule{name: "channel", priority: 10, order: &order})

	require.NoError(t, InitModules(&ModuleContext{Logger: zap.NewNop()}))
	assert.Equal(t, []string{"user", "channel", "content"}, order)
}

func TestShutdownReverseOrder(t *testing.T) {
	ctx := &ModuleContext{}
	var order []int
	ctx.OnShutdown(func() { order = append(order, 1) })
	ctx.OnShutdown(func() { order = append(order, 2) })

	ctx.Shutdown()
	assert.Equal(t, []int{2, 1}, order)
}
